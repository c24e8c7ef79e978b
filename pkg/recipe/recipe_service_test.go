package recipe

import (
	"Foodgram-Backend/domain"
	"Foodgram-Backend/entities"
	"Foodgram-Backend/pkg/ingredient"
	"Foodgram-Backend/pkg/subscription"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:recipesvc_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := db.AutoMigrate(
		&entities.User{},
		&entities.Ingredient{},
		&entities.Recipe{},
		&entities.RecipeIngredient{},
		&entities.Favorite{},
		&entities.ShoppingCart{},
		&entities.Subscription{},
	); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

type stubStorage struct {
	deleted []string
}

func (s *stubStorage) UploadFile(string, *multipart.FileHeader, string, ...string) (string, error) {
	return "stub/object", nil
}

func (s *stubStorage) UploadBase64Image(string, string) (string, error) {
	return "stub/object.png", nil
}

func (s *stubStorage) DeleteFile(objectKey string) error {
	s.deleted = append(s.deleted, objectKey)
	return nil
}

func (s *stubStorage) GetPublicLinkKey(objectKey string) string {
	return "https://cdn.test/" + objectKey
}

func (s *stubStorage) GetObjectKeyFromLink(link string) string {
	return strings.TrimPrefix(link, "https://cdn.test/")
}

func newTestService(db *gorm.DB) RecipeService {
	return NewRecipeService(
		NewRecipeRepository(db),
		ingredient.NewIngredientRepository(db),
		subscription.NewSubscriptionRepository(db),
		&stubStorage{},
	)
}

func seedUser(t *testing.T, db *gorm.DB, username string) *entities.User {
	t.Helper()
	user := &entities.User{
		ID:        uuid.New(),
		Email:     username + "@example.com",
		Username:  username,
		FirstName: "Test",
		LastName:  "User",
		Password:  "hashed",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func seedIngredient(t *testing.T, db *gorm.DB, name, unit string) *entities.Ingredient {
	t.Helper()
	ing := &entities.Ingredient{
		ID:              uuid.New(),
		Name:            name,
		MeasurementUnit: unit,
	}
	if err := db.Create(ing).Error; err != nil {
		t.Fatalf("seed ingredient: %v", err)
	}
	return ing
}

func createReq(items ...domain.RecipeIngredientRequest) domain.CreateRecipeRequest {
	return domain.CreateRecipeRequest{
		Name:        "Pancakes",
		Image:       "https://cdn.test/recipes/images/pancakes.png",
		Text:        "Mix everything and fry.",
		CookingTime: 15,
		Ingredients: items,
	}
}

func TestCreateRecipe_EmptyIngredients(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(db)
	author := seedUser(t, db, "author")

	_, err := svc.CreateRecipe(context.Background(), createReq(), author.ID.String())
	if !errors.Is(err, domain.ErrIngredientsEmpty) {
		t.Fatalf("expected ErrIngredientsEmpty, got %v", err)
	}
}

func TestCreateRecipe_DuplicatedIngredients(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(db)
	author := seedUser(t, db, "author")
	flour := seedIngredient(t, db, "Flour", "g")

	_, err := svc.CreateRecipe(context.Background(), createReq(
		domain.RecipeIngredientRequest{ID: flour.ID.String(), Amount: 2},
		domain.RecipeIngredientRequest{ID: flour.ID.String(), Amount: 3},
	), author.ID.String())
	if !errors.Is(err, domain.ErrIngredientsDuplicated) {
		t.Fatalf("expected ErrIngredientsDuplicated, got %v", err)
	}
}

func TestCreateRecipe_UnknownIngredient(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(db)
	author := seedUser(t, db, "author")

	_, err := svc.CreateRecipe(context.Background(), createReq(
		domain.RecipeIngredientRequest{ID: uuid.NewString(), Amount: 2},
	), author.ID.String())
	if !errors.Is(err, domain.ErrIngredientNotFound) {
		t.Fatalf("expected ErrIngredientNotFound, got %v", err)
	}
}

func TestCreateRecipe_InvalidAmount(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(db)
	author := seedUser(t, db, "author")
	flour := seedIngredient(t, db, "Flour", "g")

	_, err := svc.CreateRecipe(context.Background(), createReq(
		domain.RecipeIngredientRequest{ID: flour.ID.String(), Amount: 0},
	), author.ID.String())
	if !errors.Is(err, domain.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestCreateRecipe_InvalidCookingTime(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(db)
	author := seedUser(t, db, "author")
	flour := seedIngredient(t, db, "Flour", "g")

	req := createReq(domain.RecipeIngredientRequest{ID: flour.ID.String(), Amount: 2})
	req.CookingTime = 0

	_, err := svc.CreateRecipe(context.Background(), req, author.ID.String())
	if !errors.Is(err, domain.ErrInvalidCookingTime) {
		t.Fatalf("expected ErrInvalidCookingTime, got %v", err)
	}
}

func TestCreateRecipe_Success(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(db)
	author := seedUser(t, db, "author")
	flour := seedIngredient(t, db, "Flour", "g")
	sugar := seedIngredient(t, db, "Sugar", "kg")

	res, err := svc.CreateRecipe(context.Background(), createReq(
		domain.RecipeIngredientRequest{ID: flour.ID.String(), Amount: 200},
		domain.RecipeIngredientRequest{ID: sugar.ID.String(), Amount: 1},
	), author.ID.String())
	if err != nil {
		t.Fatalf("create recipe: %v", err)
	}

	if res.Name != "Pancakes" || res.CookingTime != 15 {
		t.Fatalf("unexpected recipe projection: %+v", res)
	}
	if len(res.Ingredients) != 2 {
		t.Fatalf("expected 2 ingredients, got %d", len(res.Ingredients))
	}
	if res.Author.ID != author.ID.String() {
		t.Fatalf("expected author %s, got %s", author.ID, res.Author.ID)
	}
	if res.IsFavorited || res.IsInShoppingCart {
		t.Fatalf("fresh recipe should not be favorited or in cart: %+v", res)
	}
}

func TestUpdateRecipe_ReplacesLineItems(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(db)
	author := seedUser(t, db, "author")
	flour := seedIngredient(t, db, "Flour", "g")
	sugar := seedIngredient(t, db, "Sugar", "kg")

	created, err := svc.CreateRecipe(context.Background(), createReq(
		domain.RecipeIngredientRequest{ID: flour.ID.String(), Amount: 200},
		domain.RecipeIngredientRequest{ID: sugar.ID.String(), Amount: 1},
	), author.ID.String())
	if err != nil {
		t.Fatalf("create recipe: %v", err)
	}

	// The new set omits flour, which drops it from the recipe.
	updated, err := svc.UpdateRecipe(context.Background(), created.ID, domain.UpdateRecipeRequest{
		Name: "Sweet pancakes",
		Ingredients: []domain.RecipeIngredientRequest{
			{ID: sugar.ID.String(), Amount: 2},
		},
	}, author.ID.String())
	if err != nil {
		t.Fatalf("update recipe: %v", err)
	}

	if updated.Name != "Sweet pancakes" {
		t.Fatalf("expected renamed recipe, got %q", updated.Name)
	}
	if len(updated.Ingredients) != 1 || updated.Ingredients[0].ID != sugar.ID.String() {
		t.Fatalf("expected only sugar to remain, got %+v", updated.Ingredients)
	}
	if updated.Ingredients[0].Amount != 2 {
		t.Fatalf("expected amount 2, got %d", updated.Ingredients[0].Amount)
	}
	if updated.Text != "Mix everything and fry." {
		t.Fatalf("omitted text should stay unchanged, got %q", updated.Text)
	}
}

func TestUpdateRecipe_RequiresIngredients(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(db)
	author := seedUser(t, db, "author")
	flour := seedIngredient(t, db, "Flour", "g")

	created, err := svc.CreateRecipe(context.Background(), createReq(
		domain.RecipeIngredientRequest{ID: flour.ID.String(), Amount: 200},
	), author.ID.String())
	if err != nil {
		t.Fatalf("create recipe: %v", err)
	}

	_, err = svc.UpdateRecipe(context.Background(), created.ID, domain.UpdateRecipeRequest{
		Name: "Renamed",
	}, author.ID.String())
	if !errors.Is(err, domain.ErrIngredientsEmpty) {
		t.Fatalf("expected ErrIngredientsEmpty, got %v", err)
	}
}

func TestUpdateRecipe_NotAuthor(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(db)
	author := seedUser(t, db, "author")
	other := seedUser(t, db, "other")
	flour := seedIngredient(t, db, "Flour", "g")

	created, err := svc.CreateRecipe(context.Background(), createReq(
		domain.RecipeIngredientRequest{ID: flour.ID.String(), Amount: 200},
	), author.ID.String())
	if err != nil {
		t.Fatalf("create recipe: %v", err)
	}

	_, err = svc.UpdateRecipe(context.Background(), created.ID, domain.UpdateRecipeRequest{
		Ingredients: []domain.RecipeIngredientRequest{
			{ID: flour.ID.String(), Amount: 1},
		},
	}, other.ID.String())
	if !errors.Is(err, domain.ErrUnauthorizedRecipeAccess) {
		t.Fatalf("expected ErrUnauthorizedRecipeAccess, got %v", err)
	}
}

func TestDeleteRecipe_RemovesRelations(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(db)
	repo := NewRecipeRepository(db)
	author := seedUser(t, db, "author")
	fan := seedUser(t, db, "fan")
	flour := seedIngredient(t, db, "Flour", "g")

	created, err := svc.CreateRecipe(context.Background(), createReq(
		domain.RecipeIngredientRequest{ID: flour.ID.String(), Amount: 200},
	), author.ID.String())
	if err != nil {
		t.Fatalf("create recipe: %v", err)
	}

	if _, err := svc.AddFavorite(context.Background(), created.ID, fan.ID.String()); err != nil {
		t.Fatalf("add favorite: %v", err)
	}
	if _, err := svc.AddToCart(context.Background(), created.ID, fan.ID.String()); err != nil {
		t.Fatalf("add to cart: %v", err)
	}

	if err := svc.DeleteRecipe(context.Background(), created.ID, author.ID.String()); err != nil {
		t.Fatalf("delete recipe: %v", err)
	}

	if _, err := svc.GetRecipeDetail(context.Background(), created.ID, ""); !errors.Is(err, domain.ErrRecipeNotFound) {
		t.Fatalf("expected ErrRecipeNotFound after delete, got %v", err)
	}
	if favorited, _ := repo.IsFavorited(context.Background(), fan.ID.String(), created.ID); favorited {
		t.Fatal("favorite row should be gone after recipe delete")
	}
	if inCart, _ := repo.IsInCart(context.Background(), fan.ID.String(), created.ID); inCart {
		t.Fatal("cart row should be gone after recipe delete")
	}
}

func TestDeleteRecipe_NotAuthor(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(db)
	author := seedUser(t, db, "author")
	other := seedUser(t, db, "other")
	flour := seedIngredient(t, db, "Flour", "g")

	created, err := svc.CreateRecipe(context.Background(), createReq(
		domain.RecipeIngredientRequest{ID: flour.ID.String(), Amount: 200},
	), author.ID.String())
	if err != nil {
		t.Fatalf("create recipe: %v", err)
	}

	if err := svc.DeleteRecipe(context.Background(), created.ID, other.ID.String()); !errors.Is(err, domain.ErrUnauthorizedRecipeAccess) {
		t.Fatalf("expected ErrUnauthorizedRecipeAccess, got %v", err)
	}
}

func TestAddFavorite_Twice(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(db)
	author := seedUser(t, db, "author")
	fan := seedUser(t, db, "fan")
	flour := seedIngredient(t, db, "Flour", "g")

	created, err := svc.CreateRecipe(context.Background(), createReq(
		domain.RecipeIngredientRequest{ID: flour.ID.String(), Amount: 200},
	), author.ID.String())
	if err != nil {
		t.Fatalf("create recipe: %v", err)
	}

	card, err := svc.AddFavorite(context.Background(), created.ID, fan.ID.String())
	if err != nil {
		t.Fatalf("add favorite: %v", err)
	}
	if card.ID != created.ID || card.Name != created.Name {
		t.Fatalf("unexpected card: %+v", card)
	}

	if _, err := svc.AddFavorite(context.Background(), created.ID, fan.ID.String()); !errors.Is(err, domain.ErrAlreadyFavorited) {
		t.Fatalf("expected ErrAlreadyFavorited, got %v", err)
	}
}

func TestRelations_DuplicateInsertTranslated(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(db)
	repo := NewRecipeRepository(db)
	author := seedUser(t, db, "author")
	fan := seedUser(t, db, "fan")
	flour := seedIngredient(t, db, "Flour", "g")

	created, err := svc.CreateRecipe(context.Background(), createReq(
		domain.RecipeIngredientRequest{ID: flour.ID.String(), Amount: 200},
	), author.ID.String())
	if err != nil {
		t.Fatalf("create recipe: %v", err)
	}
	recipeID := uuid.MustParse(created.ID)

	// A writer that lost the race skips the exists check and hits the unique
	// index directly; the service maps the translated error to the conflict
	// sentinel.
	if err := repo.AddFavorite(context.Background(), fan.ID, recipeID); err != nil {
		t.Fatalf("add favorite: %v", err)
	}
	if err := repo.AddFavorite(context.Background(), fan.ID, recipeID); !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("expected gorm.ErrDuplicatedKey from duplicate favorite, got %v", err)
	}

	if err := repo.AddToCart(context.Background(), fan.ID, recipeID); err != nil {
		t.Fatalf("add to cart: %v", err)
	}
	if err := repo.AddToCart(context.Background(), fan.ID, recipeID); !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("expected gorm.ErrDuplicatedKey from duplicate cart row, got %v", err)
	}
}

func TestRemoveFavorite_NotFavorited(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(db)
	author := seedUser(t, db, "author")
	fan := seedUser(t, db, "fan")
	flour := seedIngredient(t, db, "Flour", "g")

	created, err := svc.CreateRecipe(context.Background(), createReq(
		domain.RecipeIngredientRequest{ID: flour.ID.String(), Amount: 200},
	), author.ID.String())
	if err != nil {
		t.Fatalf("create recipe: %v", err)
	}

	if err := svc.RemoveFavorite(context.Background(), created.ID, fan.ID.String()); !errors.Is(err, domain.ErrNotInFavorites) {
		t.Fatalf("expected ErrNotInFavorites, got %v", err)
	}
}

func TestCart_AddTwiceAndRemoveAbsent(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(db)
	author := seedUser(t, db, "author")
	fan := seedUser(t, db, "fan")
	flour := seedIngredient(t, db, "Flour", "g")

	created, err := svc.CreateRecipe(context.Background(), createReq(
		domain.RecipeIngredientRequest{ID: flour.ID.String(), Amount: 200},
	), author.ID.String())
	if err != nil {
		t.Fatalf("create recipe: %v", err)
	}

	if _, err := svc.AddToCart(context.Background(), created.ID, fan.ID.String()); err != nil {
		t.Fatalf("add to cart: %v", err)
	}
	if _, err := svc.AddToCart(context.Background(), created.ID, fan.ID.String()); !errors.Is(err, domain.ErrAlreadyInCart) {
		t.Fatalf("expected ErrAlreadyInCart, got %v", err)
	}

	if err := svc.RemoveFromCart(context.Background(), created.ID, fan.ID.String()); err != nil {
		t.Fatalf("remove from cart: %v", err)
	}
	if err := svc.RemoveFromCart(context.Background(), created.ID, fan.ID.String()); !errors.Is(err, domain.ErrNotInCart) {
		t.Fatalf("expected ErrNotInCart, got %v", err)
	}
}

func TestFavoriteRelation_RecipeNotFound(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(db)
	fan := seedUser(t, db, "fan")

	if _, err := svc.AddFavorite(context.Background(), uuid.NewString(), fan.ID.String()); !errors.Is(err, domain.ErrRecipeNotFound) {
		t.Fatalf("expected ErrRecipeNotFound, got %v", err)
	}
}

func TestGetRecipeDetail_AnonymousFlagsFalse(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(db)
	author := seedUser(t, db, "author")
	fan := seedUser(t, db, "fan")
	flour := seedIngredient(t, db, "Flour", "g")

	created, err := svc.CreateRecipe(context.Background(), createReq(
		domain.RecipeIngredientRequest{ID: flour.ID.String(), Amount: 200},
	), author.ID.String())
	if err != nil {
		t.Fatalf("create recipe: %v", err)
	}

	if _, err := svc.AddFavorite(context.Background(), created.ID, fan.ID.String()); err != nil {
		t.Fatalf("add favorite: %v", err)
	}
	if _, err := svc.AddToCart(context.Background(), created.ID, fan.ID.String()); err != nil {
		t.Fatalf("add to cart: %v", err)
	}

	asFan, err := svc.GetRecipeDetail(context.Background(), created.ID, fan.ID.String())
	if err != nil {
		t.Fatalf("get detail as fan: %v", err)
	}
	if !asFan.IsFavorited || !asFan.IsInShoppingCart {
		t.Fatalf("fan flags should be true: %+v", asFan)
	}

	asGuest, err := svc.GetRecipeDetail(context.Background(), created.ID, "")
	if err != nil {
		t.Fatalf("get detail as guest: %v", err)
	}
	if asGuest.IsFavorited || asGuest.IsInShoppingCart {
		t.Fatalf("anonymous flags must be false: %+v", asGuest)
	}
}

func TestGetRecipes_FavoritedFilter(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(db)
	author := seedUser(t, db, "author")
	fan := seedUser(t, db, "fan")
	flour := seedIngredient(t, db, "Flour", "g")

	first, err := svc.CreateRecipe(context.Background(), createReq(
		domain.RecipeIngredientRequest{ID: flour.ID.String(), Amount: 200},
	), author.ID.String())
	if err != nil {
		t.Fatalf("create first recipe: %v", err)
	}

	second := createReq(domain.RecipeIngredientRequest{ID: flour.ID.String(), Amount: 100})
	second.Name = "Bread"
	if _, err := svc.CreateRecipe(context.Background(), second, author.ID.String()); err != nil {
		t.Fatalf("create second recipe: %v", err)
	}

	if _, err := svc.AddFavorite(context.Background(), first.ID, fan.ID.String()); err != nil {
		t.Fatalf("add favorite: %v", err)
	}

	favorited := true
	recipes, count, err := svc.GetRecipes(context.Background(), domain.RecipeFilter{IsFavorited: &favorited}, 1, 10, fan.ID.String())
	if err != nil {
		t.Fatalf("get recipes: %v", err)
	}
	if count != 1 || len(recipes) != 1 || recipes[0].ID != first.ID {
		t.Fatalf("expected only the favorited recipe, got count=%d recipes=%+v", count, recipes)
	}

	// The same filter is ignored for an anonymous viewer.
	recipes, count, err = svc.GetRecipes(context.Background(), domain.RecipeFilter{IsFavorited: &favorited}, 1, 10, "")
	if err != nil {
		t.Fatalf("get recipes anonymous: %v", err)
	}
	if count != 2 || len(recipes) != 2 {
		t.Fatalf("expected full listing for anonymous viewer, got count=%d", count)
	}
}

func TestGetRecipes_AuthorFilter(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(db)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	flour := seedIngredient(t, db, "Flour", "g")

	if _, err := svc.CreateRecipe(context.Background(), createReq(
		domain.RecipeIngredientRequest{ID: flour.ID.String(), Amount: 200},
	), alice.ID.String()); err != nil {
		t.Fatalf("create alice recipe: %v", err)
	}
	bobReq := createReq(domain.RecipeIngredientRequest{ID: flour.ID.String(), Amount: 100})
	bobReq.Name = "Bread"
	if _, err := svc.CreateRecipe(context.Background(), bobReq, bob.ID.String()); err != nil {
		t.Fatalf("create bob recipe: %v", err)
	}

	recipes, count, err := svc.GetRecipes(context.Background(), domain.RecipeFilter{AuthorID: bob.ID.String()}, 1, 10, "")
	if err != nil {
		t.Fatalf("get recipes: %v", err)
	}
	if count != 1 || len(recipes) != 1 || recipes[0].Author.ID != bob.ID.String() {
		t.Fatalf("expected only bob's recipe, got count=%d", count)
	}
}

func TestDownloadShoppingList_ConsolidatesAmounts(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(db)
	author := seedUser(t, db, "author")
	shopper := seedUser(t, db, "shopper")
	other := seedUser(t, db, "other")
	flour := seedIngredient(t, db, "Flour", "g")
	sugar := seedIngredient(t, db, "Sugar", "kg")
	salt := seedIngredient(t, db, "Salt", "g")

	pancakes, err := svc.CreateRecipe(context.Background(), createReq(
		domain.RecipeIngredientRequest{ID: flour.ID.String(), Amount: 2},
		domain.RecipeIngredientRequest{ID: sugar.ID.String(), Amount: 1},
	), author.ID.String())
	if err != nil {
		t.Fatalf("create pancakes: %v", err)
	}

	breadReq := createReq(domain.RecipeIngredientRequest{ID: flour.ID.String(), Amount: 3})
	breadReq.Name = "Bread"
	bread, err := svc.CreateRecipe(context.Background(), breadReq, author.ID.String())
	if err != nil {
		t.Fatalf("create bread: %v", err)
	}

	saltyReq := createReq(domain.RecipeIngredientRequest{ID: salt.ID.String(), Amount: 5})
	saltyReq.Name = "Salty sticks"
	salty, err := svc.CreateRecipe(context.Background(), saltyReq, author.ID.String())
	if err != nil {
		t.Fatalf("create salty sticks: %v", err)
	}

	if _, err := svc.AddToCart(context.Background(), pancakes.ID, shopper.ID.String()); err != nil {
		t.Fatalf("add pancakes to cart: %v", err)
	}
	if _, err := svc.AddToCart(context.Background(), bread.ID, shopper.ID.String()); err != nil {
		t.Fatalf("add bread to cart: %v", err)
	}
	// Another user's cart must not leak into the report.
	if _, err := svc.AddToCart(context.Background(), salty.ID, other.ID.String()); err != nil {
		t.Fatalf("add salty sticks to other cart: %v", err)
	}

	data, err := svc.DownloadShoppingList(context.Background(), shopper.ID.String())
	if err != nil {
		t.Fatalf("download shopping list: %v", err)
	}

	want := "Flour (g),5\nSugar (kg),1\n"
	if string(data) != want {
		t.Fatalf("unexpected report:\nwant %q\ngot  %q", want, string(data))
	}
}

func TestDownloadShoppingList_EmptyCart(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(db)
	shopper := seedUser(t, db, "shopper")

	data, err := svc.DownloadShoppingList(context.Background(), shopper.ID.String())
	if err != nil {
		t.Fatalf("download shopping list: %v", err)
	}
	if len(data) != 0 {
		t.Fatalf("expected empty report, got %q", string(data))
	}
}

func TestGetShortLink(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(db)
	author := seedUser(t, db, "author")
	flour := seedIngredient(t, db, "Flour", "g")

	created, err := svc.CreateRecipe(context.Background(), createReq(
		domain.RecipeIngredientRequest{ID: flour.ID.String(), Amount: 200},
	), author.ID.String())
	if err != nil {
		t.Fatalf("create recipe: %v", err)
	}

	link, err := svc.GetShortLink(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("get short link: %v", err)
	}
	if !strings.HasSuffix(link.ShortLink, "/s/"+created.ID) {
		t.Fatalf("unexpected short link %q", link.ShortLink)
	}

	if _, err := svc.GetShortLink(context.Background(), uuid.NewString()); !errors.Is(err, domain.ErrRecipeNotFound) {
		t.Fatalf("expected ErrRecipeNotFound, got %v", err)
	}
}
