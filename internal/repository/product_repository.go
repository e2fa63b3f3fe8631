package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"giftmarket/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrProductNotFound      = errors.New("product not found")
	ErrProductAlreadyExists = errors.New("product with this id already exists")
)

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, productID string, update *domain.ProductUpdate) (*domain.Product, error)
	Delete(ctx context.Context, productID string) error
	FindByID(ctx context.Context, productID string) (*domain.Product, error)
	List(ctx context.Context, category string) ([]*domain.Product, error)
	IncrementViews(ctx context.Context, productID string) (*domain.Product, error)
}

type productRepository struct {
	collection *mongo.Collection
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *mongo.Database) ProductRepository {
	return &productRepository{collection: db.Collection("products")}
}

// Create inserts a new product document
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	_, err := r.collection.InsertOne(ctx, product)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrProductAlreadyExists
		}
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Update applies a partial update and returns the updated document
func (r *productRepository) Update(ctx context.Context, productID string, update *domain.ProductUpdate) (*domain.Product, error) {
	set := bson.M{"updatedAt": time.Now()}
	if update.Name != nil {
		set["name"] = *update.Name
	}
	if update.Image != nil {
		set["image"] = *update.Image
	}
	if update.Category != nil {
		set["category"] = *update.Category
	}
	if update.Description != nil {
		set["description"] = *update.Description
	}
	if update.PriceTon != nil {
		set["priceTon"] = *update.PriceTon
	}
	if update.Status != nil {
		set["status"] = *update.Status
	}
	if update.MintDate != nil {
		set["mintDate"] = *update.MintDate
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	product := &domain.Product{}
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"productId": productID}, bson.M{"$set": set}, opts).Decode(product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return product, nil
}

// Delete removes a product document
func (r *productRepository) Delete(ctx context.Context, productID string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"productId": productID})
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrProductNotFound
	}
	return nil
}

// FindByID retrieves a product by its external id
func (r *productRepository) FindByID(ctx context.Context, productID string) (*domain.Product, error) {
	product := &domain.Product{}
	err := r.collection.FindOne(ctx, bson.M{"productId": productID}).Decode(product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	return product, nil
}

// List retrieves products newest-first, optionally filtered by category
func (r *productRepository) List(ctx context.Context, category string) ([]*domain.Product, error) {
	filter := bson.M{}
	if category != "" {
		filter["category"] = category
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer cursor.Close(ctx)

	products := []*domain.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	return products, nil
}

// IncrementViews atomically bumps the view counter and returns the updated document
func (r *productRepository) IncrementViews(ctx context.Context, productID string) (*domain.Product, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	product := &domain.Product{}
	err := r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"productId": productID},
		bson.M{"$inc": bson.M{"views": 1}},
		opts,
	).Decode(product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to increment views: %w", err)
	}
	return product, nil
}
