package models

import (
	"time"

	"github.com/silkmall/silkmall-backend/pkg/enums"
)

// ProductReview holds one review per (order item, author role).
type ProductReview struct {
	ID          int64             `gorm:"column:id;primaryKey;autoIncrement"`
	OrderItemID int64             `gorm:"column:order_item_id;not null;uniqueIndex:ux_product_reviews_item_role"`
	ProductID   int64             `gorm:"column:product_id;not null;index"`
	OrderID     int64             `gorm:"column:order_id;not null;index"`
	AuthorID    int64             `gorm:"column:author_id;not null"`
	AuthorRole  enums.AccountRole `gorm:"column:author_role;type:account_role;not null;uniqueIndex:ux_product_reviews_item_role"`
	Rating      int               `gorm:"column:rating;not null"`
	Content     string            `gorm:"column:content"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
}
