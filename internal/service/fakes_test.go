package service

import (
	"context"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"testing"

	"github.com/sakif/hometender/internal/apperror"
	"github.com/sakif/hometender/internal/auth"
	"github.com/sakif/hometender/internal/model"
	"github.com/sakif/hometender/internal/repository"
	"github.com/sakif/hometender/internal/session"
)

// =========================================================================
// FAKE STORE
// =========================================================================
//
// fakeStore implements repository.Transactor over plain maps. It mirrors
// the constraints the SQLite schema enforces (unique names per owner,
// cascades on member delete, ingredients in use cannot be deleted) so the
// services can be tested without a database.
//
// WithinTx snapshots the maps and restores them if fn fails, which is
// enough to assert "nothing was written" after a rejected operation.

type fakeStore struct {
	members     map[int64]model.Member
	ingredients map[int64]model.Ingredient
	recipes     map[int64]model.Recipe
	nextID      int64

	txCount int
	// when set, every repository call fails with this error
	failWith error
}

var _ repository.Transactor = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{
		members:     make(map[int64]model.Member),
		ingredients: make(map[int64]model.Ingredient),
		recipes:     make(map[int64]model.Recipe),
	}
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) Members() repository.MemberRepository         { return fakeMembers{f} }
func (f *fakeStore) Ingredients() repository.IngredientRepository { return fakeIngredients{f} }
func (f *fakeStore) Recipes() repository.RecipeRepository         { return fakeRecipes{f} }

func (f *fakeStore) WithinTx(_ context.Context, fn func(repository.Store) error) error {
	f.txCount++

	members := make(map[int64]model.Member, len(f.members))
	for k, v := range f.members {
		members[k] = v
	}
	ingredients := make(map[int64]model.Ingredient, len(f.ingredients))
	for k, v := range f.ingredients {
		ingredients[k] = v
	}
	recipes := make(map[int64]model.Recipe, len(f.recipes))
	for k, v := range f.recipes {
		v.Lines = append([]model.RecipeIngredient(nil), v.Lines...)
		recipes[k] = v
	}

	if err := fn(f); err != nil {
		f.members, f.ingredients, f.recipes = members, ingredients, recipes
		return err
	}
	return nil
}

func notFound(resource string, id int64) error {
	return apperror.NotFound(resource, strconv.FormatInt(id, 10))
}

// ---- members ----

type fakeMembers struct{ f *fakeStore }

func (r fakeMembers) Create(_ context.Context, m *model.Member) error {
	if r.f.failWith != nil {
		return r.f.failWith
	}
	for _, existing := range r.f.members {
		if existing.LoginID == m.LoginID {
			return apperror.Conflict("member", m.LoginID)
		}
	}
	m.ID = r.f.id()
	r.f.members[m.ID] = *m
	return nil
}

func (r fakeMembers) GetByID(_ context.Context, id int64) (*model.Member, error) {
	if r.f.failWith != nil {
		return nil, r.f.failWith
	}
	m, ok := r.f.members[id]
	if !ok {
		return nil, notFound("member", id)
	}
	return &m, nil
}

func (r fakeMembers) GetByLoginID(_ context.Context, loginID string) (*model.Member, error) {
	if r.f.failWith != nil {
		return nil, r.f.failWith
	}
	for _, m := range r.f.members {
		if m.LoginID == loginID {
			return &m, nil
		}
	}
	return nil, apperror.NotFound("member", loginID)
}

func (r fakeMembers) Delete(_ context.Context, id int64) error {
	if r.f.failWith != nil {
		return r.f.failWith
	}
	if _, ok := r.f.members[id]; !ok {
		return notFound("member", id)
	}
	delete(r.f.members, id)
	for rid, rec := range r.f.recipes {
		if rec.MemberID == id {
			delete(r.f.recipes, rid)
		}
	}
	for iid, ing := range r.f.ingredients {
		if ing.MemberID == id {
			delete(r.f.ingredients, iid)
		}
	}
	return nil
}

// ---- ingredients ----

type fakeIngredients struct{ f *fakeStore }

func (r fakeIngredients) nameTaken(memberID int64, name string, selfID int64) bool {
	for _, ing := range r.f.ingredients {
		if ing.MemberID == memberID && ing.Name == name && ing.ID != selfID {
			return true
		}
	}
	return false
}

func (r fakeIngredients) Create(_ context.Context, ing *model.Ingredient) error {
	if r.f.failWith != nil {
		return r.f.failWith
	}
	if _, ok := r.f.members[ing.MemberID]; !ok {
		return notFound("member", ing.MemberID)
	}
	if r.nameTaken(ing.MemberID, ing.Name, 0) {
		return apperror.Conflict("ingredient", ing.Name)
	}
	ing.ID = r.f.id()
	r.f.ingredients[ing.ID] = *ing
	return nil
}

func (r fakeIngredients) GetByID(_ context.Context, id int64) (*model.Ingredient, error) {
	if r.f.failWith != nil {
		return nil, r.f.failWith
	}
	ing, ok := r.f.ingredients[id]
	if !ok {
		return nil, notFound("ingredient", id)
	}
	return &ing, nil
}

func (r fakeIngredients) GetByName(_ context.Context, memberID int64, name string) (*model.Ingredient, error) {
	if r.f.failWith != nil {
		return nil, r.f.failWith
	}
	for _, ing := range r.f.ingredients {
		if ing.MemberID == memberID && ing.Name == name {
			return &ing, nil
		}
	}
	return nil, apperror.NotFound("ingredient", name)
}

func (r fakeIngredients) ListByOwner(_ context.Context, memberID int64) ([]model.Ingredient, error) {
	if r.f.failWith != nil {
		return nil, r.f.failWith
	}
	list := []model.Ingredient{}
	for _, ing := range r.f.ingredients {
		if ing.MemberID == memberID {
			list = append(list, ing)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (r fakeIngredients) Update(_ context.Context, ing *model.Ingredient) error {
	if r.f.failWith != nil {
		return r.f.failWith
	}
	if _, ok := r.f.ingredients[ing.ID]; !ok {
		return notFound("ingredient", ing.ID)
	}
	if r.nameTaken(ing.MemberID, ing.Name, ing.ID) {
		return apperror.Conflict("ingredient", ing.Name)
	}
	r.f.ingredients[ing.ID] = *ing
	return nil
}

func (r fakeIngredients) Delete(_ context.Context, id int64) error {
	if r.f.failWith != nil {
		return r.f.failWith
	}
	if _, ok := r.f.ingredients[id]; !ok {
		return notFound("ingredient", id)
	}
	for _, rec := range r.f.recipes {
		for _, l := range rec.Lines {
			if l.IngredientID == id {
				return apperror.Conflict("ingredient", strconv.FormatInt(id, 10))
			}
		}
	}
	delete(r.f.ingredients, id)
	return nil
}

// ---- recipes ----

type fakeRecipes struct{ f *fakeStore }

func (r fakeRecipes) nameTaken(memberID int64, name string, selfID int64) bool {
	for _, rec := range r.f.recipes {
		if rec.MemberID == memberID && rec.Name == name && rec.ID != selfID {
			return true
		}
	}
	return false
}

func (r fakeRecipes) storeLines(rec *model.Recipe) error {
	for i := range rec.Lines {
		if _, ok := r.f.ingredients[rec.Lines[i].IngredientID]; !ok {
			return notFound("ingredient", rec.Lines[i].IngredientID)
		}
		rec.Lines[i].RecipeID = rec.ID
		rec.Lines[i].Position = i
		rec.Lines[i].ID = r.f.id()
	}
	stored := *rec
	stored.Lines = append([]model.RecipeIngredient(nil), rec.Lines...)
	r.f.recipes[rec.ID] = stored
	return nil
}

func (r fakeRecipes) Create(_ context.Context, rec *model.Recipe) error {
	if r.f.failWith != nil {
		return r.f.failWith
	}
	if r.nameTaken(rec.MemberID, rec.Name, 0) {
		return apperror.Conflict("recipe", rec.Name)
	}
	rec.ID = r.f.id()
	return r.storeLines(rec)
}

func (r fakeRecipes) GetByID(_ context.Context, id int64) (*model.Recipe, error) {
	if r.f.failWith != nil {
		return nil, r.f.failWith
	}
	rec, ok := r.f.recipes[id]
	if !ok {
		return nil, notFound("recipe", id)
	}
	lines := make([]model.RecipeIngredient, len(rec.Lines))
	for i, l := range rec.Lines {
		ing := r.f.ingredients[l.IngredientID]
		l.IngredientName = ing.Name
		l.Unit = ing.Unit
		lines[i] = l
	}
	rec.Lines = lines
	return &rec, nil
}

func (r fakeRecipes) GetByName(_ context.Context, memberID int64, name string) (*model.Recipe, error) {
	if r.f.failWith != nil {
		return nil, r.f.failWith
	}
	for _, rec := range r.f.recipes {
		if rec.MemberID == memberID && rec.Name == name {
			rec.Lines = nil
			return &rec, nil
		}
	}
	return nil, apperror.NotFound("recipe", name)
}

func (r fakeRecipes) ListByOwner(_ context.Context, memberID int64) ([]model.RecipeSummary, error) {
	if r.f.failWith != nil {
		return nil, r.f.failWith
	}
	list := []model.RecipeSummary{}
	for _, rec := range r.f.recipes {
		if rec.MemberID == memberID {
			list = append(list, model.RecipeSummary{ID: rec.ID, Name: rec.Name, IngredientCount: len(rec.Lines)})
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (r fakeRecipes) Update(_ context.Context, rec *model.Recipe) error {
	if r.f.failWith != nil {
		return r.f.failWith
	}
	if _, ok := r.f.recipes[rec.ID]; !ok {
		return notFound("recipe", rec.ID)
	}
	if r.nameTaken(rec.MemberID, rec.Name, rec.ID) {
		return apperror.Conflict("recipe", rec.Name)
	}
	return r.storeLines(rec)
}

func (r fakeRecipes) Delete(_ context.Context, id int64) error {
	if r.f.failWith != nil {
		return r.f.failWith
	}
	if _, ok := r.f.recipes[id]; !ok {
		return notFound("recipe", id)
	}
	delete(r.f.recipes, id)
	return nil
}

// =========================================================================
// FAKE SESSION STORE
// =========================================================================

type fakeSessions struct {
	byID     map[string]int64
	next     int
	failWith error
}

var _ session.Store = (*fakeSessions)(nil)

func newFakeSessions() *fakeSessions {
	return &fakeSessions{byID: make(map[string]int64)}
}

func (s *fakeSessions) Create(_ context.Context, memberID int64) (string, error) {
	if s.failWith != nil {
		return "", s.failWith
	}
	s.next++
	id := "sid-" + strconv.Itoa(s.next)
	s.byID[id] = memberID
	return id, nil
}

func (s *fakeSessions) MemberID(_ context.Context, id string) (int64, error) {
	m, ok := s.byID[id]
	if !ok {
		return 0, session.ErrNotFound
	}
	return m, nil
}

func (s *fakeSessions) Delete(_ context.Context, id string) (bool, error) {
	if s.failWith != nil {
		return false, s.failWith
	}
	_, ok := s.byID[id]
	delete(s.byID, id)
	return ok, nil
}

func (s *fakeSessions) DeleteByMember(_ context.Context, memberID int64) error {
	if s.failWith != nil {
		return s.failWith
	}
	for id, m := range s.byID {
		if m == memberID {
			delete(s.byID, id)
		}
	}
	return nil
}

func (s *fakeSessions) Close() error { return nil }

// =========================================================================
// HELPERS
// =========================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

type testServices struct {
	store       *fakeStore
	sessions    *fakeSessions
	members     *MemberService
	ingredients *IngredientService
	recipes     *RecipeService
}

func newTestServices(t *testing.T) *testServices {
	t.Helper()
	store := newFakeStore()
	sessions := newFakeSessions()
	logger := testLogger()
	return &testServices{
		store:       store,
		sessions:    sessions,
		members:     NewMemberService(store, sessions, auth.NewPasswordServiceForTest(4), logger),
		ingredients: NewIngredientService(store, logger),
		recipes:     NewRecipeService(store, logger),
	}
}

func (ts *testServices) join(t *testing.T, loginID string) int64 {
	t.Helper()
	res, err := ts.members.Join(context.Background(), JoinInput{LoginID: loginID, Password: "password!", Nickname: "nick"})
	if err != nil {
		t.Fatalf("Join(%s) error = %v", loginID, err)
	}
	return res.ID
}

func (ts *testServices) ingredient(t *testing.T, memberID int64, name string) int64 {
	t.Helper()
	ing, err := ts.ingredients.Post(context.Background(), memberID, IngredientInput{Name: name, Unit: "ml"})
	if err != nil {
		t.Fatalf("Post ingredient %s error = %v", name, err)
	}
	return ing.ID
}
