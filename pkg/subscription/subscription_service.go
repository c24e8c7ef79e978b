package subscription

import (
	"Foodgram-Backend/domain"
	"Foodgram-Backend/entities"
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type (
	SubscriptionService interface {
		Subscribe(ctx context.Context, authorID string, userID string, recipesLimit string) (domain.SubscriptionResponse, error)
		Unsubscribe(ctx context.Context, authorID string, userID string) error
		GetSubscriptions(ctx context.Context, userID string, page, limit int, recipesLimit string) ([]domain.SubscriptionResponse, int64, error)
	}

	subscriptionService struct {
		subscriptionRepository SubscriptionRepository
	}
)

func NewSubscriptionService(subscriptionRepository SubscriptionRepository) SubscriptionService {
	return &subscriptionService{
		subscriptionRepository: subscriptionRepository,
	}
}

// parseRecipesLimit interprets the optional recipes_limit query value. Empty
// means no truncation; anything non-numeric or non-positive is rejected.
func parseRecipesLimit(recipesLimit string) (int, error) {
	if recipesLimit == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(recipesLimit)
	if err != nil || limit < 1 {
		return 0, domain.ErrInvalidRecipesLimit
	}
	return limit, nil
}

func (s *subscriptionService) Subscribe(ctx context.Context, authorID string, userID string, recipesLimit string) (domain.SubscriptionResponse, error) {
	limit, err := parseRecipesLimit(recipesLimit)
	if err != nil {
		return domain.SubscriptionResponse{}, err
	}

	if authorID == userID {
		return domain.SubscriptionResponse{}, domain.ErrSelfSubscription
	}

	author, err := s.subscriptionRepository.GetAuthorByID(ctx, authorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.SubscriptionResponse{}, domain.ErrUserNotFound
		}
		return domain.SubscriptionResponse{}, err
	}

	exists, err := s.subscriptionRepository.IsSubscribed(ctx, userID, authorID)
	if err != nil {
		return domain.SubscriptionResponse{}, err
	}
	if exists {
		return domain.SubscriptionResponse{}, domain.ErrAlreadySubscribed
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.SubscriptionResponse{}, domain.ErrParseUUID
	}

	if err := s.subscriptionRepository.Subscribe(ctx, userUUID, author.ID); err != nil {
		// A concurrent subscribe loses against the unique (user, author) index.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.SubscriptionResponse{}, domain.ErrAlreadySubscribed
		}
		return domain.SubscriptionResponse{}, err
	}

	return s.projectSubscription(ctx, author, limit)
}

func (s *subscriptionService) Unsubscribe(ctx context.Context, authorID string, userID string) error {
	author, err := s.subscriptionRepository.GetAuthorByID(ctx, authorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.ErrParseUUID
	}

	rows, err := s.subscriptionRepository.Unsubscribe(ctx, userUUID, author.ID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrNotSubscribed
	}
	return nil
}

func (s *subscriptionService) GetSubscriptions(ctx context.Context, userID string, page, limit int, recipesLimit string) ([]domain.SubscriptionResponse, int64, error) {
	cardLimit, err := parseRecipesLimit(recipesLimit)
	if err != nil {
		return nil, 0, err
	}

	subs, count, err := s.subscriptionRepository.GetSubscriptions(ctx, userID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	result := make([]domain.SubscriptionResponse, 0, len(subs))
	for _, sub := range subs {
		if sub.Author == nil {
			continue
		}
		projection, err := s.projectSubscription(ctx, sub.Author, cardLimit)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, projection)
	}

	return result, count, nil
}

// projectSubscription augments the author profile with the authored-recipe
// count and sample cards. The viewer holds the subscription, so
// is_subscribed is true by construction.
func (s *subscriptionService) projectSubscription(ctx context.Context, author *entities.User, recipesLimit int) (domain.SubscriptionResponse, error) {
	recipes, count, err := s.subscriptionRepository.GetAuthorRecipes(ctx, author.ID, recipesLimit)
	if err != nil {
		return domain.SubscriptionResponse{}, err
	}

	cards := make([]domain.SimpleRecipeResponse, 0, len(recipes))
	for _, recipe := range recipes {
		cards = append(cards, domain.SimpleRecipeResponse{
			ID:          recipe.ID.String(),
			Name:        recipe.Name,
			ImageURL:    recipe.ImageURL,
			CookingTime: recipe.CookingTimeMinutes,
		})
	}

	return domain.SubscriptionResponse{
		UserResponse: domain.UserResponse{
			ID:           author.ID.String(),
			Email:        author.Email,
			Username:     author.Username,
			FirstName:    author.FirstName,
			LastName:     author.LastName,
			IsSubscribed: true,
			AvatarURL:    author.AvatarURL,
		},
		RecipesCount: int(count),
		Recipes:      cards,
	}, nil
}
