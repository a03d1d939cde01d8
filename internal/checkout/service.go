package checkout

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/fluxo-pos/internal/cart"
	"github.com/angelmondragon/fluxo-pos/internal/promotions"
	"github.com/angelmondragon/fluxo-pos/internal/remote"
	"github.com/angelmondragon/fluxo-pos/pkg/db/models"
	"github.com/angelmondragon/fluxo-pos/pkg/enums"
	pkgerrors "github.com/angelmondragon/fluxo-pos/pkg/errors"
	"github.com/angelmondragon/fluxo-pos/pkg/logger"
	"github.com/angelmondragon/fluxo-pos/pkg/metrics"
	"github.com/angelmondragon/fluxo-pos/pkg/types"
)

const defaultSubmitTimeout = 8 * time.Second

type promotionSource interface {
	Promotions(ctx context.Context) ([]models.Promotion, error)
}

type orderQueue interface {
	Enqueue(ctx context.Context, header types.OrderHeader, lines []types.OrderLine) (string, error)
}

type connectivity interface {
	IsOnline() bool
}

// Service turns a session's cart into an order.
type Service interface {
	Checkout(ctx context.Context, sessionID string, req Request) (*Result, error)
	Quote(ctx context.Context, sessionID string) (*Quote, error)
}

// Request carries the order details the cashier enters at checkout.
type Request struct {
	CustomerID      *string           `json:"customer_id,omitempty"`
	OrderType       enums.OrderType   `json:"order_type"`
	PaymentType     enums.PaymentType `json:"payment_type"`
	TableNumber     *string           `json:"table_number,omitempty"`
	DeliveryAddress *string           `json:"delivery_address,omitempty"`
	DeliveryPhone   *string           `json:"delivery_phone,omitempty"`
	Notes           *string           `json:"notes,omitempty"`
	CreatedBy       *string           `json:"created_by,omitempty"`
}

// Result describes where the order went. Exactly one of Receipt or PendingID
// is set.
type Result struct {
	ClientRef string            `json:"client_ref"`
	Queued    bool              `json:"queued"`
	PendingID string            `json:"pending_id,omitempty"`
	Receipt   *remote.Receipt   `json:"receipt,omitempty"`
	Totals    promotions.Totals `json:"totals"`
}

// Quote is the cart preview shown before paying.
type Quote struct {
	Items   []cart.GroupedEntry `json:"items"`
	Count   int                 `json:"count"`
	Totals  promotions.Totals   `json:"totals"`
	Offline bool                `json:"offline"`
}

type ServiceParams struct {
	CompanyID    string
	TerminalID   string
	Sessions     *cart.Sessions
	Engine       *promotions.Engine
	Promotions   promotionSource
	Submitter    remote.Submitter
	Queue        orderQueue
	Connectivity connectivity
	Metrics      *metrics.CheckoutMetrics
	Logger       *logger.Logger
	Clock        func() time.Time

	// SubmitTimeout bounds the live remote submit. Past it the order is
	// queued instead.
	SubmitTimeout time.Duration
}

type service struct {
	companyID  string
	terminalID string
	sessions   *cart.Sessions
	engine     *promotions.Engine
	promos     promotionSource
	submitter  remote.Submitter
	queue      orderQueue
	online     connectivity
	metrics    *metrics.CheckoutMetrics
	logg       *logger.Logger
	now        func() time.Time
	timeout    time.Duration

	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewService(params ServiceParams) (Service, error) {
	if strings.TrimSpace(params.CompanyID) == "" {
		return nil, fmt.Errorf("company id required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("cart sessions required")
	}
	if params.Promotions == nil {
		return nil, fmt.Errorf("promotion source required")
	}
	if params.Queue == nil {
		return nil, fmt.Errorf("local queue required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	engine := params.Engine
	if engine == nil {
		engine = promotions.NewEngine()
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	timeout := params.SubmitTimeout
	if timeout <= 0 {
		timeout = defaultSubmitTimeout
	}
	return &service{
		companyID:  params.CompanyID,
		terminalID: params.TerminalID,
		sessions:   params.Sessions,
		engine:     engine,
		promos:     params.Promotions,
		submitter:  params.Submitter,
		queue:      params.Queue,
		online:     params.Connectivity,
		metrics:    params.Metrics,
		logg:       params.Logger,
		now:        clock,
		timeout:    timeout,
		inflight:   make(map[string]struct{}),
	}, nil
}

func (s *service) Quote(ctx context.Context, sessionID string) (*Quote, error) {
	items := s.items(sessionID)
	promos, err := s.promos.Promotions(ctx)
	if err != nil {
		return nil, err
	}
	return &Quote{
		Items:   cart.Group(items),
		Count:   len(items),
		Totals:  s.engine.ComputeTotals(items, promos),
		Offline: !s.isOnline(),
	}, nil
}

// Checkout submits the session's cart to the remote store, or queues it
// locally when the remote is unreachable or too slow. The cart is detached
// for the duration; units added meanwhile land in a fresh cart. On any
// failure the original cart is put back.
func (s *service) Checkout(ctx context.Context, sessionID string, req Request) (*Result, error) {
	if err := s.begin(sessionID); err != nil {
		return nil, err
	}
	defer s.end(sessionID)

	c, ok := s.sessions.Take(sessionID)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	placed := false
	defer func() {
		if !placed {
			s.sessions.Restore(sessionID, c)
		}
	}()

	items := c.Items()
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	orderType := req.OrderType
	if orderType == "" {
		orderType = enums.OrderTypeLocal
	}
	if !orderType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order type").
			WithDetails(map[string]any{"order_type": req.OrderType})
	}
	if orderType == enums.OrderTypeDelivery && blank(req.DeliveryAddress) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery address is required for delivery orders")
	}

	promos, err := s.promos.Promotions(ctx)
	if err != nil {
		return nil, err
	}
	totals := s.engine.ComputeTotals(items, promos)
	header, lines := s.buildOrder(items, totals, orderType, req)

	ctx = s.logg.WithFields(ctx, map[string]any{
		"session_id": sessionID,
		"client_ref": header.ClientRef,
	})

	result := &Result{ClientRef: header.ClientRef, Totals: totals}
	if s.submitter != nil && s.isOnline() {
		receipt, err := s.submit(ctx, header, lines)
		if err == nil {
			placed = true
			s.metrics.IncSubmitted()
			result.Receipt = &receipt
			s.logg.Info(s.logg.WithField(ctx, "ticket_number", receipt.TicketNumber), "order submitted")
			return result, nil
		}
		if pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			return nil, err
		}
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "remote submit failed; queueing order")
	}

	// Enqueue must not inherit the request's cancellation.
	pendingID, err := s.queue.Enqueue(context.WithoutCancel(ctx), header, lines)
	if err != nil {
		s.logg.Error(ctx, "failed to queue order", err)
		return nil, err
	}
	placed = true
	s.metrics.IncQueued()
	result.Queued = true
	result.PendingID = pendingID
	s.logg.Info(s.logg.WithPendingID(ctx, pendingID), "order queued for sync")
	return result, nil
}

func (s *service) submit(ctx context.Context, header types.OrderHeader, lines []types.OrderLine) (remote.Receipt, error) {
	submitCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.submitter.Submit(submitCtx, header, lines)
}

func (s *service) buildOrder(items []cart.LineItem, totals promotions.Totals, orderType enums.OrderType, req Request) (types.OrderHeader, []types.OrderLine) {
	grouped := cart.Group(items)
	lines := make([]types.OrderLine, 0, len(grouped))
	for _, entry := range grouped {
		lines = append(lines, types.OrderLine{
			ProductID: entry.ProductID,
			Name:      entry.Name,
			Quantity:  entry.Quantity,
			UnitPrice: entry.UnitPrice,
			Subtotal:  entry.Subtotal,
		})
	}

	header := types.OrderHeader{
		CompanyID:        s.companyID,
		TerminalID:       s.terminalID,
		ClientRef:        uuid.NewString(),
		CustomerID:       nonBlank(req.CustomerID),
		OrderType:        orderType,
		PaymentType:      enums.NormalizePaymentType(string(req.PaymentType)),
		TableNumber:      nonBlank(req.TableNumber),
		DeliveryAddress:  nonBlank(req.DeliveryAddress),
		DeliveryPhone:    nonBlank(req.DeliveryPhone),
		Notes:            nonBlank(req.Notes),
		Subtotal:         totals.Subtotal,
		Discount:         totals.TotalDiscount,
		Total:            totals.FinalTotal,
		AppliedDiscounts: totals.AppliedDiscounts,
		CreatedBy:        nonBlank(req.CreatedBy),
		CapturedAt:       s.now().UTC(),
	}
	return header, lines
}

func (s *service) items(sessionID string) []cart.LineItem {
	c, ok := s.sessions.Peek(sessionID)
	if !ok {
		return nil
	}
	return c.Items()
}

func (s *service) isOnline() bool {
	return s.online == nil || s.online.IsOnline()
}

func (s *service) begin(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[sessionID]; busy {
		return pkgerrors.New(pkgerrors.CodeConflict, "checkout already in progress for this session")
	}
	s.inflight[sessionID] = struct{}{}
	return nil
}

func (s *service) end(sessionID string) {
	s.mu.Lock()
	delete(s.inflight, sessionID)
	s.mu.Unlock()
}

func blank(v *string) bool {
	return v == nil || strings.TrimSpace(*v) == ""
}

func nonBlank(v *string) *string {
	if blank(v) {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	return &trimmed
}
