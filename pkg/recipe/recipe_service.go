package recipe

import (
	"Foodgram-Backend/domain"
	"Foodgram-Backend/entities"
	"Foodgram-Backend/internal/utils"
	"Foodgram-Backend/internal/utils/storage"
	"Foodgram-Backend/pkg/ingredient"
	"Foodgram-Backend/pkg/subscription"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type (
	RecipeService interface {
		CreateRecipe(ctx context.Context, req domain.CreateRecipeRequest, authorID string) (domain.RecipeResponse, error)
		UpdateRecipe(ctx context.Context, recipeID string, req domain.UpdateRecipeRequest, userID string) (domain.RecipeResponse, error)
		DeleteRecipe(ctx context.Context, recipeID string, userID string) error
		GetRecipeDetail(ctx context.Context, recipeID string, viewerID string) (domain.RecipeResponse, error)
		GetRecipes(ctx context.Context, filter domain.RecipeFilter, page, limit int, viewerID string) ([]domain.RecipeResponse, int64, error)

		AddFavorite(ctx context.Context, recipeID string, userID string) (domain.SimpleRecipeResponse, error)
		RemoveFavorite(ctx context.Context, recipeID string, userID string) error
		AddToCart(ctx context.Context, recipeID string, userID string) (domain.SimpleRecipeResponse, error)
		RemoveFromCart(ctx context.Context, recipeID string, userID string) error

		DownloadShoppingList(ctx context.Context, userID string) ([]byte, error)
		GetShortLink(ctx context.Context, recipeID string) (domain.ShortLinkResponse, error)
	}

	recipeService struct {
		recipeRepository       RecipeRepository
		ingredientRepository   ingredient.IngredientRepository
		subscriptionRepository subscription.SubscriptionRepository
		s3                     storage.AwsS3
	}
)

func NewRecipeService(
	recipeRepository RecipeRepository,
	ingredientRepository ingredient.IngredientRepository,
	subscriptionRepository subscription.SubscriptionRepository,
	s3 storage.AwsS3,
) RecipeService {
	return &recipeService{
		recipeRepository:       recipeRepository,
		ingredientRepository:   ingredientRepository,
		subscriptionRepository: subscriptionRepository,
		s3:                     s3,
	}
}

// validateLineItems enforces the aggregate's write invariants: the list is
// non-empty, amounts are at least 1, no ingredient appears twice, and every
// id resolves in the catalog.
func (s *recipeService) validateLineItems(ctx context.Context, items []domain.RecipeIngredientRequest) ([]*entities.RecipeIngredient, error) {
	if len(items) == 0 {
		return nil, domain.ErrIngredientsEmpty
	}

	ids := make([]uuid.UUID, 0, len(items))
	seen := make(map[uuid.UUID]bool, len(items))
	for _, item := range items {
		id, err := uuid.Parse(item.ID)
		if err != nil {
			return nil, domain.ErrParseUUID
		}
		if seen[id] {
			return nil, domain.ErrIngredientsDuplicated
		}
		seen[id] = true
		if item.Amount < 1 {
			return nil, domain.ErrInvalidAmount
		}
		ids = append(ids, id)
	}

	found, err := s.ingredientRepository.GetIngredientsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(found) != len(ids) {
		return nil, domain.ErrIngredientNotFound
	}

	lineItems := make([]*entities.RecipeIngredient, 0, len(items))
	for i, item := range items {
		lineItems = append(lineItems, &entities.RecipeIngredient{
			ID:           uuid.New(),
			IngredientID: ids[i],
			Amount:       item.Amount,
		})
	}
	return lineItems, nil
}

func (s *recipeService) CreateRecipe(ctx context.Context, req domain.CreateRecipeRequest, authorID string) (domain.RecipeResponse, error) {
	if req.CookingTime < 1 {
		return domain.RecipeResponse{}, domain.ErrInvalidCookingTime
	}

	lineItems, err := s.validateLineItems(ctx, req.Ingredients)
	if err != nil {
		return domain.RecipeResponse{}, err
	}

	authorUUID, err := uuid.Parse(authorID)
	if err != nil {
		return domain.RecipeResponse{}, domain.ErrParseUUID
	}

	imageURL, err := s.storeImage(req.Image)
	if err != nil {
		return domain.RecipeResponse{}, err
	}

	recipe := &entities.Recipe{
		ID:                 uuid.New(),
		AuthorID:           authorUUID,
		Name:               req.Name,
		ImageURL:           imageURL,
		Text:               req.Text,
		CookingTimeMinutes: req.CookingTime,
	}

	if err := s.recipeRepository.CreateRecipe(ctx, recipe, lineItems); err != nil {
		return domain.RecipeResponse{}, err
	}

	return s.GetRecipeDetail(ctx, recipe.ID.String(), authorID)
}

func (s *recipeService) UpdateRecipe(ctx context.Context, recipeID string, req domain.UpdateRecipeRequest, userID string) (domain.RecipeResponse, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.RecipeResponse{}, domain.ErrRecipeNotFound
		}
		return domain.RecipeResponse{}, err
	}

	if recipe.AuthorID.String() != userID {
		return domain.RecipeResponse{}, domain.ErrUnauthorizedRecipeAccess
	}

	// The line-item set is required on every update and fully replaces the
	// previous one: omitting a previously attached ingredient drops it.
	lineItems, err := s.validateLineItems(ctx, req.Ingredients)
	if err != nil {
		return domain.RecipeResponse{}, err
	}

	if req.Name != "" {
		recipe.Name = req.Name
	}
	if req.Text != "" {
		recipe.Text = req.Text
	}
	if req.CookingTime > 0 {
		recipe.CookingTimeMinutes = req.CookingTime
	}
	if req.Image != "" {
		imageURL, err := s.storeImage(req.Image)
		if err != nil {
			return domain.RecipeResponse{}, err
		}
		recipe.ImageURL = imageURL
	}

	// Detach preloaded associations so Save only touches scalar columns.
	recipe.RecipeIngredients = nil
	recipe.Author = nil

	if err := s.recipeRepository.UpdateRecipe(ctx, recipe, lineItems); err != nil {
		return domain.RecipeResponse{}, err
	}

	return s.GetRecipeDetail(ctx, recipeID, userID)
}

func (s *recipeService) DeleteRecipe(ctx context.Context, recipeID string, userID string) error {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrRecipeNotFound
		}
		return err
	}

	if recipe.AuthorID.String() != userID {
		return domain.ErrUnauthorizedRecipeAccess
	}

	if recipe.ImageURL != "" {
		objectKey := s.s3.GetObjectKeyFromLink(recipe.ImageURL)
		if objectKey != "" {
			_ = s.s3.DeleteFile(objectKey)
		}
	}

	return s.recipeRepository.DeleteRecipe(ctx, recipe.ID)
}

func (s *recipeService) GetRecipeDetail(ctx context.Context, recipeID string, viewerID string) (domain.RecipeResponse, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.RecipeResponse{}, domain.ErrRecipeNotFound
		}
		return domain.RecipeResponse{}, err
	}

	return s.projectRecipe(ctx, recipe, viewerID), nil
}

func (s *recipeService) GetRecipes(ctx context.Context, filter domain.RecipeFilter, page, limit int, viewerID string) ([]domain.RecipeResponse, int64, error) {
	recipes, count, err := s.recipeRepository.GetRecipes(ctx, filter, viewerID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	result := make([]domain.RecipeResponse, 0, len(recipes))
	for _, recipe := range recipes {
		result = append(result, s.projectRecipe(ctx, recipe, viewerID))
	}
	return result, count, nil
}

// projectRecipe builds the read view. Viewer-relative flags are always false
// for an anonymous viewer, regardless of underlying data.
func (s *recipeService) projectRecipe(ctx context.Context, recipe *entities.Recipe, viewerID string) domain.RecipeResponse {
	isFavorited, isInCart := false, false
	if viewerID != "" {
		isFavorited, _ = s.recipeRepository.IsFavorited(ctx, viewerID, recipe.ID.String())
		isInCart, _ = s.recipeRepository.IsInCart(ctx, viewerID, recipe.ID.String())
	}

	ingredients := make([]domain.RecipeIngredientResponse, 0, len(recipe.RecipeIngredients))
	for _, item := range recipe.RecipeIngredients {
		if item.Ingredient == nil {
			continue
		}
		ingredients = append(ingredients, domain.RecipeIngredientResponse{
			ID:              item.IngredientID.String(),
			Name:            item.Ingredient.Name,
			MeasurementUnit: item.Ingredient.MeasurementUnit,
			Amount:          item.Amount,
		})
	}

	author := domain.UserResponse{}
	if recipe.Author != nil {
		author = domain.UserResponse{
			ID:        recipe.Author.ID.String(),
			Email:     recipe.Author.Email,
			Username:  recipe.Author.Username,
			FirstName: recipe.Author.FirstName,
			LastName:  recipe.Author.LastName,
			AvatarURL: recipe.Author.AvatarURL,
		}
		if viewerID != "" {
			author.IsSubscribed, _ = s.subscriptionRepository.IsSubscribed(ctx, viewerID, recipe.AuthorID.String())
		}
	}

	return domain.RecipeResponse{
		ID:               recipe.ID.String(),
		Author:           author,
		Ingredients:      ingredients,
		Name:             recipe.Name,
		ImageURL:         recipe.ImageURL,
		Text:             recipe.Text,
		CookingTime:      recipe.CookingTimeMinutes,
		IsFavorited:      isFavorited,
		IsInShoppingCart: isInCart,
	}
}

func (s *recipeService) AddFavorite(ctx context.Context, recipeID string, userID string) (domain.SimpleRecipeResponse, error) {
	recipe, err := s.getRecipeForRelation(ctx, recipeID)
	if err != nil {
		return domain.SimpleRecipeResponse{}, err
	}

	exists, err := s.recipeRepository.IsFavorited(ctx, userID, recipeID)
	if err != nil {
		return domain.SimpleRecipeResponse{}, err
	}
	if exists {
		return domain.SimpleRecipeResponse{}, domain.ErrAlreadyFavorited
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.SimpleRecipeResponse{}, domain.ErrParseUUID
	}

	if err := s.recipeRepository.AddFavorite(ctx, userUUID, recipe.ID); err != nil {
		// A concurrent add loses against the unique (user, recipe) index.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.SimpleRecipeResponse{}, domain.ErrAlreadyFavorited
		}
		return domain.SimpleRecipeResponse{}, err
	}

	return toSimpleRecipe(recipe), nil
}

func (s *recipeService) RemoveFavorite(ctx context.Context, recipeID string, userID string) error {
	recipe, err := s.getRecipeForRelation(ctx, recipeID)
	if err != nil {
		return err
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.ErrParseUUID
	}

	rows, err := s.recipeRepository.RemoveFavorite(ctx, userUUID, recipe.ID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrNotInFavorites
	}
	return nil
}

func (s *recipeService) AddToCart(ctx context.Context, recipeID string, userID string) (domain.SimpleRecipeResponse, error) {
	recipe, err := s.getRecipeForRelation(ctx, recipeID)
	if err != nil {
		return domain.SimpleRecipeResponse{}, err
	}

	exists, err := s.recipeRepository.IsInCart(ctx, userID, recipeID)
	if err != nil {
		return domain.SimpleRecipeResponse{}, err
	}
	if exists {
		return domain.SimpleRecipeResponse{}, domain.ErrAlreadyInCart
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.SimpleRecipeResponse{}, domain.ErrParseUUID
	}

	if err := s.recipeRepository.AddToCart(ctx, userUUID, recipe.ID); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.SimpleRecipeResponse{}, domain.ErrAlreadyInCart
		}
		return domain.SimpleRecipeResponse{}, err
	}

	return toSimpleRecipe(recipe), nil
}

func (s *recipeService) RemoveFromCart(ctx context.Context, recipeID string, userID string) error {
	recipe, err := s.getRecipeForRelation(ctx, recipeID)
	if err != nil {
		return err
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.ErrParseUUID
	}

	rows, err := s.recipeRepository.RemoveFromCart(ctx, userUUID, recipe.ID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrNotInCart
	}
	return nil
}

// DownloadShoppingList renders the consolidated report as headerless CSV
// rows of "{name} ({unit})",total. An empty cart yields an empty file.
func (s *recipeService) DownloadShoppingList(ctx context.Context, userID string) ([]byte, error) {
	items, err := s.recipeRepository.GetShoppingList(ctx, userID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	for _, item := range items {
		record := []string{
			fmt.Sprintf("%s (%s)", item.Name, item.MeasurementUnit),
			strconv.Itoa(item.Amount),
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *recipeService) GetShortLink(ctx context.Context, recipeID string) (domain.ShortLinkResponse, error) {
	recipe, err := s.getRecipeForRelation(ctx, recipeID)
	if err != nil {
		return domain.ShortLinkResponse{}, err
	}

	baseURL := strings.TrimRight(utils.GetConfig("APP_URL"), "/")
	return domain.ShortLinkResponse{
		ShortLink: fmt.Sprintf("%s/s/%s", baseURL, recipe.ID.String()),
	}, nil
}

func (s *recipeService) getRecipeForRelation(ctx context.Context, recipeID string) (*entities.Recipe, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRecipeNotFound
		}
		return nil, err
	}
	return recipe, nil
}

// storeImage uploads a data:image base64 payload to S3 and returns its
// public URL. Values that are already stored URLs pass through unchanged.
func (s *recipeService) storeImage(payload string) (string, error) {
	if !strings.HasPrefix(payload, "data:image") {
		return payload, nil
	}
	objectKey, err := s.s3.UploadBase64Image(payload, "recipes/images")
	if err != nil {
		if errors.Is(err, storage.ErrInvalidBase64Image) || errors.Is(err, storage.ErrFileTypeNotAllowed) {
			return "", domain.ErrInvalidImagePayload
		}
		return "", err
	}
	return s.s3.GetPublicLinkKey(objectKey), nil
}

func toSimpleRecipe(recipe *entities.Recipe) domain.SimpleRecipeResponse {
	return domain.SimpleRecipeResponse{
		ID:          recipe.ID.String(),
		Name:        recipe.Name,
		ImageURL:    recipe.ImageURL,
		CookingTime: recipe.CookingTimeMinutes,
	}
}
