package http

import (
	"time"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

// DTO слоя API. Имена полей повторяют внешний контракт (camelCase),
// внутренние структуры доменного слоя наружу не сериализуются.

type userView struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func toUserView(u domain.User) userView {
	return userView{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

func toUserViews(users []domain.User) []userView {
	out := make([]userView, 0, len(users))
	for _, u := range users {
		out = append(out, toUserView(u))
	}
	return out
}

type categoryView struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func toCategoryView(c domain.Category) categoryView {
	return categoryView{ID: c.ID, Name: c.Name}
}

type productView struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Price         float64 `json:"price"`
	Stock         int32   `json:"stock"`
	CategoryID    int64   `json:"categoryId,omitempty"`
	AverageRating float64 `json:"averageRating"`
	ReviewCount   int32   `json:"reviewCount"`
}

func toProductView(p domain.Product) productView {
	return productView{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		Stock:         p.Stock,
		CategoryID:    p.CategoryID,
		AverageRating: p.AverageRating,
		ReviewCount:   p.ReviewCount,
	}
}

func toProductViews(products []domain.Product) []productView {
	out := make([]productView, 0, len(products))
	for _, p := range products {
		out = append(out, toProductView(p))
	}
	return out
}

type orderItemView struct {
	ID        int64   `json:"id"`
	ProductID int64   `json:"productId"`
	Quantity  int32   `json:"quantity"`
	Price     float64 `json:"price"`
}

type orderView struct {
	ID         int64           `json:"id"`
	UserID     int64           `json:"userId"`
	Status     string          `json:"status"`
	OrderDate  time.Time       `json:"orderDate"`
	Items      []orderItemView `json:"items"`
	TotalPrice float64         `json:"totalPrice"`
}

func toOrderView(o domain.Order) orderView {
	items := make([]orderItemView, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, orderItemView{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}
	return orderView{
		ID:         o.ID,
		UserID:     o.UserID,
		Status:     string(o.Status),
		OrderDate:  o.OrderDate,
		Items:      items,
		TotalPrice: o.TotalPrice(),
	}
}

func toOrderViews(orders []domain.Order) []orderView {
	out := make([]orderView, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderView(o))
	}
	return out
}

type reviewView struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	ProductID int64     `json:"productId"`
	Rating    int32     `json:"rating"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

func toReviewView(r domain.Review) reviewView {
	return reviewView{
		ID:        r.ID,
		UserID:    r.UserID,
		ProductID: r.ProductID,
		Rating:    r.Rating,
		Content:   r.Content,
		CreatedAt: r.CreatedAt,
	}
}

func toReviewViews(reviews []domain.Review) []reviewView {
	out := make([]reviewView, 0, len(reviews))
	for _, r := range reviews {
		out = append(out, toReviewView(r))
	}
	return out
}

type timelineEventView struct {
	OrderID  int64     `json:"orderId"`
	Type     string    `json:"type"`
	Reason   string    `json:"reason,omitempty"`
	Occurred time.Time `json:"occurredAt"`
}

func toTimelineViews(events []domain.TimelineEvent) []timelineEventView {
	out := make([]timelineEventView, 0, len(events))
	for _, ev := range events {
		out = append(out, timelineEventView{
			OrderID:  ev.OrderID,
			Type:     ev.Type,
			Reason:   ev.Reason,
			Occurred: ev.Occurred,
		})
	}
	return out
}
