package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/ikkim/shopsphere-storefront/pkg/shopapi"
)

// fakeAPI is an in-memory storefront API. Pages are keyed by
// "filter|cursor"; a gate for a key holds the call until it is closed.
type fakeAPI struct {
	mu sync.Mutex

	productPages map[string]*shopapi.Page[shopapi.Product]
	reviewPages  map[string]*shopapi.Page[shopapi.Review]
	products     map[string]*shopapi.Product
	gates        map[string]chan struct{}
	calls        []string

	listErr   error
	getErr    error
	createID  string
	createErr error
	updateErr error
	deleteErr error

	signupResp *shopapi.SignupResponse
	signupErr  error
	loginResp  *shopapi.LoginResponse
	loginErr   error

	analysis   *shopapi.AnalysisResult
	analyzeErr error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		productPages: map[string]*shopapi.Page[shopapi.Product]{},
		reviewPages:  map[string]*shopapi.Page[shopapi.Review]{},
		products:     map[string]*shopapi.Product{},
		gates:        map[string]chan struct{}{},
	}
}

func (f *fakeAPI) record(call string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.gates[call]
}

// wait blocks on gate, as a slow server would, until it is released or
// ctx ends.
func (f *fakeAPI) wait(ctx context.Context, gate chan struct{}) error {
	if gate == nil {
		return ctx.Err()
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeAPI) gate(call string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[call] = ch
	return ch
}

func (f *fakeAPI) callCount(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeAPI) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeAPI) ListProducts(ctx context.Context, q shopapi.PageQuery) (*shopapi.Page[shopapi.Product], error) {
	key := "products|" + q.Cursor
	if err := f.wait(ctx, f.record(key)); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	page, ok := f.productPages[q.Cursor]
	if !ok {
		return nil, fmt.Errorf("no product page for cursor %q", q.Cursor)
	}
	return &shopapi.Page[shopapi.Product]{Items: append([]shopapi.Product{}, page.Items...), NextCursor: page.NextCursor}, nil
}

func (f *fakeAPI) GetProduct(ctx context.Context, id string) (*shopapi.Product, error) {
	if err := f.wait(ctx, f.record("product|"+id)); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	p, ok := f.products[id]
	if !ok {
		return nil, &shopapi.APIError{StatusCode: 404, Message: "Product not found"}
	}
	out := *p
	return &out, nil
}

func (f *fakeAPI) ListReviews(ctx context.Context, q shopapi.ReviewQuery) (*shopapi.Page[shopapi.Review], error) {
	key := q.ProductID + "|" + q.Cursor
	if err := f.wait(ctx, f.record("reviews|"+key)); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	page, ok := f.reviewPages[key]
	if !ok {
		return nil, fmt.Errorf("no review page for %q", key)
	}
	return &shopapi.Page[shopapi.Review]{Items: append([]shopapi.Review{}, page.Items...), NextCursor: page.NextCursor}, nil
}

func (f *fakeAPI) GetReview(ctx context.Context, id string) (*shopapi.Review, error) {
	f.record("review|" + id)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &shopapi.Review{ID: id, UserID: "u1", Rating: 3, ReviewText: "fetched"}, nil
}

func (f *fakeAPI) CreateReview(ctx context.Context, review shopapi.NewReview) (string, error) {
	f.record("create")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.createID, f.createErr
}

func (f *fakeAPI) UpdateReview(ctx context.Context, id string, update shopapi.ReviewUpdate) error {
	f.record("update|" + id)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.updateErr
}

func (f *fakeAPI) DeleteReview(ctx context.Context, id string) error {
	f.record("delete|" + id)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deleteErr
}

func (f *fakeAPI) Signup(ctx context.Context, req shopapi.SignupRequest) (*shopapi.SignupResponse, error) {
	f.record("signup")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.signupResp, f.signupErr
}

func (f *fakeAPI) Login(ctx context.Context, req shopapi.LoginRequest) (*shopapi.LoginResponse, error) {
	f.record("login")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loginResp, f.loginErr
}

func (f *fakeAPI) AnalyzeAll(ctx context.Context) (*shopapi.AnalysisResult, error) {
	if err := f.wait(ctx, f.record("analyze")); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.analyzeErr != nil {
		return nil, f.analyzeErr
	}
	return copyResult(f.analysis), nil
}

func makeProducts(ids ...string) []shopapi.Product {
	out := make([]shopapi.Product, 0, len(ids))
	for _, id := range ids {
		out = append(out, shopapi.Product{ID: id, Name: "Product " + id})
	}
	return out
}

func makeReviews(ids ...string) []shopapi.Review {
	out := make([]shopapi.Review, 0, len(ids))
	for _, id := range ids {
		out = append(out, shopapi.Review{ID: id, UserID: "u1", Rating: 4, ReviewText: "review " + id})
	}
	return out
}

func productIDs(items []shopapi.Product) []string {
	ids := make([]string, 0, len(items))
	for _, p := range items {
		ids = append(ids, p.ID)
	}
	return ids
}

func reviewIDs(items []shopapi.Review) []string {
	ids := make([]string, 0, len(items))
	for _, r := range items {
		ids = append(ids, r.ID)
	}
	return ids
}
