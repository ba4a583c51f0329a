package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/silkmall/silkmall-backend/internal/accounts"
	"github.com/silkmall/silkmall-backend/internal/inventory"
	"github.com/silkmall/silkmall-backend/internal/products"
	"github.com/silkmall/silkmall-backend/pkg/config"
	dbpkg "github.com/silkmall/silkmall-backend/pkg/db"
	"github.com/silkmall/silkmall-backend/pkg/db/models"
	"github.com/silkmall/silkmall-backend/pkg/enums"
	pkgerrors "github.com/silkmall/silkmall-backend/pkg/errors"
	"github.com/silkmall/silkmall-backend/pkg/metrics"
	"github.com/silkmall/silkmall-backend/pkg/outbox"
	"github.com/silkmall/silkmall-backend/pkg/outbox/payloads"
	"github.com/silkmall/silkmall-backend/pkg/pagination"
)

const orderNumberAttempts = 3

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
	WithConflictRetry(ctx context.Context, policy dbpkg.RetryPolicy, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type inventoryLedger interface {
	Reserve(ctx context.Context, tx *gorm.DB, reservations []inventory.Reservation) error
	Release(ctx context.Context, tx *gorm.DB, productID int64, qty int) error
	IncrementSales(ctx context.Context, tx *gorm.DB, productID int64, qty int) error
}

type walletLedger interface {
	Debit(ctx context.Context, tx *gorm.DB, accountID int64, orderID *int64, kind enums.WalletEntryKind, amount decimal.Decimal) error
	Credit(ctx context.Context, tx *gorm.DB, accountID int64, orderID *int64, kind enums.WalletEntryKind, amount decimal.Decimal) error
}

// Actor identifies who is driving an operation.
type Actor struct {
	AccountID int64
	Role      enums.AccountRole
}

// Service drives the order lifecycle state machine.
type Service struct {
	repo        Repository
	accounts    *accounts.Repository
	products    *products.Repository
	inventory   inventoryLedger
	wallet      walletLedger
	tx          txRunner
	outbox      outboxPublisher
	metrics     *metrics.MarketplaceMetrics
	cfg         config.MarketplaceConfig
	orderNumber func() string
}

// NewService builds an orders service with the required dependencies.
func NewService(repo Repository, accountsRepo *accounts.Repository, productsRepo *products.Repository, inv inventoryLedger, wallet walletLedger, tx txRunner, ob outboxPublisher, mm *metrics.MarketplaceMetrics, cfg config.MarketplaceConfig) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if accountsRepo == nil {
		return nil, fmt.Errorf("accounts repository required")
	}
	if productsRepo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if inv == nil {
		return nil, fmt.Errorf("inventory ledger required")
	}
	if wallet == nil {
		return nil, fmt.Errorf("wallet ledger required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ob == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &Service{
		repo:        repo,
		accounts:    accountsRepo,
		products:    productsRepo,
		inventory:   inv,
		wallet:      wallet,
		tx:          tx,
		outbox:      ob,
		metrics:     mm,
		cfg:         cfg,
		orderNumber: generateOrderNumber,
	}, nil
}

func (s *Service) retryPolicy() dbpkg.RetryPolicy {
	return dbpkg.RetryPolicy{MaxAttempts: s.cfg.TxMaxRetries, Backoff: s.cfg.TxRetryBackoff}
}

// Create reserves stock, snapshots prices and opens a pending_payment order.
func (s *Service) Create(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if input.ConsumerID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account identity missing")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order requires at least one item")
	}
	if err := validateContact(input.Contact); err != nil {
		return nil, err
	}

	quantities := map[int64]int{}
	for _, item := range input.Items {
		if item.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
		quantities[item.ProductID] += item.Qty
	}
	productIDs := make([]int64, 0, len(quantities))
	for id := range quantities {
		productIDs = append(productIDs, id)
	}
	sort.Slice(productIDs, func(i, j int) bool { return productIDs[i] < productIDs[j] })

	var created *models.Order
	err := s.tx.WithConflictRetry(ctx, s.retryPolicy(), func(tx *gorm.DB) error {
		catalog, err := s.products.WithTx(tx).FindByIDs(ctx, productIDs)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
		}
		byID := make(map[int64]models.Product, len(catalog))
		for _, product := range catalog {
			byID[product.ID] = product
		}
		for _, id := range productIDs {
			if _, ok := byID[id]; !ok {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
		}

		reservations := make([]inventory.Reservation, 0, len(productIDs))
		for _, id := range productIDs {
			reservations = append(reservations, inventory.Reservation{ProductID: id, Qty: quantities[id]})
		}
		if err := s.inventory.Reserve(ctx, tx, reservations); err != nil {
			return err
		}

		total := decimal.Zero
		items := make([]models.OrderItem, 0, len(productIDs))
		for _, id := range productIDs {
			product := byID[id]
			qty := quantities[id]
			lineTotal := product.Price.Mul(decimal.NewFromInt(int64(qty)))
			total = total.Add(lineTotal)
			items = append(items, models.OrderItem{
				ProductID:   product.ID,
				SupplierID:  product.SupplierID,
				ProductName: product.Name,
				UnitPrice:   product.Price,
				Quantity:    qty,
				LineTotal:   lineTotal,
			})
		}
		commission := total.Mul(s.cfg.CommissionRate).Round(2)

		order := &models.Order{
			ConsumerLookupID: generateConsumerLookupID(),
			ConsumerID:       input.ConsumerID,
			Status:           enums.OrderStatusPendingPayment,
			PayoutStatus:     enums.PayoutStatusNone,
			TotalAmount:      total,
			CommissionAmount: commission,
			ContactName:      input.Contact.Name,
			ContactPhone:     input.Contact.Phone,
			ShippingAddress:  input.Contact.Address,
			Items:            items,
		}
		repo := s.repo.WithTx(tx)
		// each attempt runs under a savepoint: a duplicate-number insert
		// aborts the surrounding Postgres transaction otherwise
		for attempt := 0; ; attempt++ {
			order.OrderNumber = s.orderNumber()
			if err := tx.SavePoint("create_order").Error; err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
			}
			if _, err := repo.Create(ctx, order); err != nil {
				if dbpkg.IsUniqueViolation(err, "order_number") && attempt < orderNumberAttempts-1 {
					if err := tx.RollbackTo("create_order").Error; err != nil {
						return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
					}
					continue
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
			}
			break
		}

		created = order
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{AccountID: input.ConsumerID, Role: enums.AccountRoleConsumer},
			Data: payloads.OrderCreatedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				ConsumerID:  order.ConsumerID,
				TotalAmount: order.TotalAmount,
				ItemCount:   len(order.Items),
			},
		})
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncOrderTransition(string(enums.OrderStatusPendingPayment))
	return created, nil
}

// Cancel voids an unpaid order and returns its reserved stock.
func (s *Service) Cancel(ctx context.Context, orderID int64, actor Actor) error {
	err := s.tx.WithConflictRetry(ctx, s.retryPolicy(), func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := loadOrder(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if err := requireConsumerOwnership(order, actor); err != nil {
			return err
		}

		moved, err := repo.TransitionStatus(ctx, order.ID,
			[]enums.OrderStatus{enums.OrderStatusPendingPayment},
			map[string]any{"status": enums.OrderStatusCancelled})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order can no longer be cancelled")
		}

		for _, item := range order.Items {
			if err := s.inventory.Release(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         actorRef(actor),
			Data: payloads.OrderCancelledEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				ConsumerID:  order.ConsumerID,
				CancelledAt: time.Now().UTC(),
			},
		})
	})
	if err != nil {
		return err
	}
	s.metrics.IncOrderTransition(string(enums.OrderStatusCancelled))
	return nil
}

// Pay settles the order from the consumer wallet into platform escrow and
// moves it to pending_shipment, recording which payment method was used.
func (s *Service) Pay(ctx context.Context, orderID int64, actor Actor, method string) error {
	method = strings.TrimSpace(method)
	if method == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment method required")
	}
	err := s.tx.WithConflictRetry(ctx, s.retryPolicy(), func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := loadOrder(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if err := requireConsumerOwnership(order, actor); err != nil {
			return err
		}

		now := time.Now().UTC()
		moved, err := repo.TransitionStatus(ctx, order.ID,
			[]enums.OrderStatus{enums.OrderStatusPendingPayment},
			map[string]any{
				"status":         enums.OrderStatusPendingShipment,
				"payout_status":  enums.PayoutStatusPending,
				"payment_method": method,
				"paid_at":        now,
			})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order paid")
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not awaiting payment")
		}

		if err := s.wallet.Debit(ctx, tx, order.ConsumerID, &order.ID, enums.WalletEntryKindPayment, order.TotalAmount); err != nil {
			return err
		}
		escrow, err := s.escrowAccount(ctx, tx)
		if err != nil {
			return err
		}
		if err := s.wallet.Credit(ctx, tx, escrow.ID, &order.ID, enums.WalletEntryKindEscrow, order.TotalAmount); err != nil {
			return err
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         actorRef(actor),
			Data: payloads.OrderPaidEvent{
				OrderID:          order.ID,
				OrderNumber:      order.OrderNumber,
				ConsumerID:       order.ConsumerID,
				TotalAmount:      order.TotalAmount,
				CommissionAmount: order.CommissionAmount,
				PaymentMethod:    method,
				PaidAt:           now,
			},
		})
	})
	if err != nil {
		return err
	}
	s.metrics.IncOrderTransition(string(enums.OrderStatusPendingShipment))
	return nil
}

// Ship moves a paid order into the shipped state.
func (s *Service) Ship(ctx context.Context, orderID int64, actor Actor) error {
	return s.ship(ctx, orderID, actor, nil)
}

// SupplierShip lets a supplier ship an order once every line belongs to them.
func (s *Service) SupplierShip(ctx context.Context, orderID int64, actor Actor) error {
	if actor.Role != enums.AccountRoleSupplier {
		return pkgerrors.New(pkgerrors.CodeForbidden, "supplier role required")
	}
	return s.ship(ctx, orderID, actor, &actor.AccountID)
}

func (s *Service) ship(ctx context.Context, orderID int64, actor Actor, supplierID *int64) error {
	err := s.tx.WithConflictRetry(ctx, s.retryPolicy(), func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := loadOrder(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if supplierID != nil {
			for _, item := range order.Items {
				if item.SupplierID != *supplierID {
					return pkgerrors.New(pkgerrors.CodeForbidden, "order contains items from other suppliers")
				}
			}
		}

		now := time.Now().UTC()
		moved, err := repo.TransitionStatus(ctx, order.ID,
			[]enums.OrderStatus{enums.OrderStatusPendingShipment},
			map[string]any{
				"status":     enums.OrderStatusShipped,
				"shipped_at": now,
			})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order shipped")
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not awaiting shipment")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderShipped,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         actorRef(actor),
			Data: payloads.OrderShippedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				SupplierID:  supplierID,
				ShippedAt:   &now,
			},
		})
	})
	if err != nil {
		return err
	}
	s.metrics.IncOrderTransition(string(enums.OrderStatusShipped))
	return nil
}

// MarkInTransit records the logistics handoff.
func (s *Service) MarkInTransit(ctx context.Context, orderID int64, actor Actor) error {
	err := s.tx.WithConflictRetry(ctx, s.retryPolicy(), func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := loadOrder(ctx, repo, orderID)
		if err != nil {
			return err
		}

		moved, err := repo.TransitionStatus(ctx, order.ID,
			[]enums.OrderStatus{enums.OrderStatusShipped},
			map[string]any{
				"status":        enums.OrderStatusInTransit,
				"in_transit_at": time.Now().UTC(),
			})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order in transit")
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not shipped")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderInTransit,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         actorRef(actor),
			Data: payloads.OrderInTransitEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
			},
		})
	})
	if err != nil {
		return err
	}
	s.metrics.IncOrderTransition(string(enums.OrderStatusInTransit))
	return nil
}

// Deliver marks the order delivered on behalf of logistics.
func (s *Service) Deliver(ctx context.Context, orderID int64, actor Actor) error {
	return s.deliver(ctx, orderID, actor, false)
}

// ConfirmReceipt lets the consumer confirm delivery of their own order.
func (s *Service) ConfirmReceipt(ctx context.Context, orderID int64, actor Actor) error {
	return s.deliver(ctx, orderID, actor, true)
}

func (s *Service) deliver(ctx context.Context, orderID int64, actor Actor, requireOwnership bool) error {
	err := s.tx.WithConflictRetry(ctx, s.retryPolicy(), func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := loadOrder(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if requireOwnership {
			if err := requireConsumerOwnership(order, actor); err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		moved, err := repo.TransitionStatus(ctx, order.ID,
			[]enums.OrderStatus{enums.OrderStatusShipped, enums.OrderStatusInTransit},
			map[string]any{
				"status":       enums.OrderStatusDelivered,
				"delivered_at": now,
			})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order delivered")
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not in a shippable state")
		}

		for _, item := range order.Items {
			if err := s.inventory.IncrementSales(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderDelivered,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         actorRef(actor),
			Data: payloads.OrderDeliveredEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				ConsumerID:  order.ConsumerID,
				DeliveredAt: now,
			},
		})
	})
	if err != nil {
		return err
	}
	s.metrics.IncOrderTransition(string(enums.OrderStatusDelivered))
	return nil
}

// ApprovePayout releases escrow minus commission to suppliers, pro rata by
// line totals. The rounding remainder lands on the last supplier in
// ascending supplier-id order.
func (s *Service) ApprovePayout(ctx context.Context, orderID int64, actor Actor) error {
	err := s.tx.WithConflictRetry(ctx, s.retryPolicy(), func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := loadOrder(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if order.Status != enums.OrderStatusDelivered {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payout requires a delivered order")
		}

		moved, err := repo.TransitionPayout(ctx, order.ID,
			[]enums.OrderStatus{enums.OrderStatusDelivered},
			enums.PayoutStatusPending, enums.PayoutStatusApproved)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "approve payout")
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payout is not pending")
		}

		shares := splitPayout(order.Items, order.TotalAmount, order.CommissionAmount)
		escrow, err := s.escrowAccount(ctx, tx)
		if err != nil {
			return err
		}
		distributable := order.TotalAmount.Sub(order.CommissionAmount)
		if err := s.wallet.Debit(ctx, tx, escrow.ID, &order.ID, enums.WalletEntryKindPayout, distributable); err != nil {
			return err
		}
		supplierAmounts := make([]payloads.SupplierPayout, 0, len(shares))
		for _, share := range shares {
			if err := s.wallet.Credit(ctx, tx, share.SupplierID, &order.ID, enums.WalletEntryKindPayout, share.Amount); err != nil {
				return err
			}
			supplierAmounts = append(supplierAmounts, payloads.SupplierPayout{SupplierID: share.SupplierID, Amount: share.Amount})
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPayoutApproved,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         actorRef(actor),
			Data: payloads.PayoutApprovedEvent{
				OrderID:          order.ID,
				OrderNumber:      order.OrderNumber,
				CommissionAmount: order.CommissionAmount,
				SupplierAmounts:  supplierAmounts,
				ApprovedBy:       actor.AccountID,
				PayoutStatus:     enums.PayoutStatusApproved,
			},
		})
	})
	if err != nil {
		return err
	}
	s.metrics.IncPayoutApproved()
	return nil
}

// Revoke reverses a paid order: escrow refunds the consumer in full. It is
// forbidden once the payout has been approved.
func (s *Service) Revoke(ctx context.Context, orderID int64, actor Actor) error {
	err := s.tx.WithConflictRetry(ctx, s.retryPolicy(), func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := loadOrder(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if order.PayoutStatus == enums.PayoutStatusApproved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payout already approved")
		}

		paidStatuses := []enums.OrderStatus{
			enums.OrderStatusPendingShipment,
			enums.OrderStatusShipped,
			enums.OrderStatusInTransit,
			enums.OrderStatusDelivered,
		}
		moved, err := repo.TransitionPayout(ctx, order.ID, paidStatuses,
			enums.PayoutStatusPending, enums.PayoutStatusRefunded)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refund payout")
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order cannot be revoked")
		}
		if _, err := repo.TransitionStatus(ctx, order.ID, paidStatuses,
			map[string]any{"status": enums.OrderStatusRevoked}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke order")
		}

		escrow, err := s.escrowAccount(ctx, tx)
		if err != nil {
			return err
		}
		if err := s.wallet.Debit(ctx, tx, escrow.ID, &order.ID, enums.WalletEntryKindRevocation, order.TotalAmount); err != nil {
			return err
		}
		if err := s.wallet.Credit(ctx, tx, order.ConsumerID, &order.ID, enums.WalletEntryKindRefund, order.TotalAmount); err != nil {
			return err
		}

		// undelivered goods go back on the shelf
		if order.Status != enums.OrderStatusDelivered {
			for _, item := range order.Items {
				if err := s.inventory.Release(ctx, tx, item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderRevoked,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         actorRef(actor),
			Data: payloads.OrderRevokedEvent{
				OrderID:        order.ID,
				OrderNumber:    order.OrderNumber,
				ConsumerID:     order.ConsumerID,
				RefundedAmount: order.TotalAmount,
			},
		})
	})
	if err != nil {
		return err
	}
	s.metrics.IncOrderTransition(string(enums.OrderStatusRevoked))
	return nil
}

// UpdateContact edits the delivery contact block before shipment.
func (s *Service) UpdateContact(ctx context.Context, input UpdateContactInput) error {
	if err := validateContact(input.Contact); err != nil {
		return err
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		updated, err := repo.UpdateContact(ctx, input.OrderID, input.ConsumerID, input.Contact)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update contact")
		}
		if updated {
			return nil
		}
		order, err := loadOrder(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}
		if order.ConsumerID != input.ConsumerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to account")
		}
		return pkgerrors.New(pkgerrors.CodeStateConflict, "contact can no longer be changed")
	})
}

// Get loads one order, enforcing role-scoped visibility.
func (s *Service) Get(ctx context.Context, orderID int64, actor Actor) (*models.Order, error) {
	order, err := loadOrder(ctx, s.repo, orderID)
	if err != nil {
		return nil, err
	}
	switch actor.Role {
	case enums.AccountRoleAdmin:
		return order, nil
	case enums.AccountRoleConsumer:
		if order.ConsumerID != actor.AccountID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to account")
		}
		return order, nil
	case enums.AccountRoleSupplier:
		for _, item := range order.Items {
			if item.SupplierID == actor.AccountID {
				return order, nil
			}
		}
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not involve supplier")
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "unknown role")
	}
}

// ListForConsumer pages a consumer's own orders.
func (s *Service) ListForConsumer(ctx context.Context, consumerID int64, params pagination.Params, filters ListFilters) (*OrderList, error) {
	list, err := s.repo.ListByConsumer(ctx, consumerID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list consumer orders")
	}
	return list, nil
}

// ListForSupplier pages orders containing the supplier's items.
func (s *Service) ListForSupplier(ctx context.Context, supplierID int64, params pagination.Params, filters ListFilters) (*OrderList, error) {
	list, err := s.repo.ListBySupplier(ctx, supplierID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list supplier orders")
	}
	return list, nil
}

// ListAll pages every order for the admin console.
func (s *Service) ListAll(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderList, error) {
	list, err := s.repo.ListAll(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

func (s *Service) escrowAccount(ctx context.Context, tx *gorm.DB) (*models.Account, error) {
	escrow, err := s.accounts.WithTx(tx).FirstAdmin(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeDependency, "escrow account missing")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve escrow account")
	}
	return escrow, nil
}

func loadOrder(ctx context.Context, repo Repository, orderID int64) (*models.Order, error) {
	order, err := repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func requireConsumerOwnership(order *models.Order, actor Actor) error {
	if actor.Role == enums.AccountRoleAdmin {
		return nil
	}
	if order.ConsumerID != actor.AccountID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to account")
	}
	return nil
}

// splitPayout divides total minus commission across suppliers pro rata by
// their line totals. Shares round to cents; the remainder lands on the last
// supplier so the split always sums exactly.
func splitPayout(items []models.OrderItem, total, commission decimal.Decimal) []PayoutShare {
	perSupplier := map[int64]decimal.Decimal{}
	for _, item := range items {
		perSupplier[item.SupplierID] = perSupplier[item.SupplierID].Add(item.LineTotal)
	}
	supplierIDs := make([]int64, 0, len(perSupplier))
	for id := range perSupplier {
		supplierIDs = append(supplierIDs, id)
	}
	sort.Slice(supplierIDs, func(i, j int) bool { return supplierIDs[i] < supplierIDs[j] })

	distributable := total.Sub(commission)
	shares := make([]PayoutShare, 0, len(supplierIDs))
	allocated := decimal.Zero
	for i, supplierID := range supplierIDs {
		var amount decimal.Decimal
		if i == len(supplierIDs)-1 {
			amount = distributable.Sub(allocated)
		} else {
			amount = perSupplier[supplierID].Mul(distributable).Div(total).Round(2)
			allocated = allocated.Add(amount)
		}
		shares = append(shares, PayoutShare{SupplierID: supplierID, Amount: amount})
	}
	return shares
}

func validateContact(contact ContactInfo) error {
	if strings.TrimSpace(contact.Name) == "" || strings.TrimSpace(contact.Phone) == "" || strings.TrimSpace(contact.Address) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "contact name, phone and address are required")
	}
	return nil
}

func actorRef(actor Actor) *outbox.ActorRef {
	return &outbox.ActorRef{AccountID: actor.AccountID, Role: actor.Role}
}

func generateOrderNumber() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%d%s", time.Now().UnixMilli(), suffix)
}

// generateConsumerLookupID mints the short reference consumers quote in
// support conversations, e.g. C3F81A2B905CD.
func generateConsumerLookupID() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return "C" + strings.ToUpper(hex)
}
