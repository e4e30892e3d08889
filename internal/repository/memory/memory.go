// Package memory provides map-backed repository implementations.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mohanatextiles/storefront/internal/errs"
	"github.com/mohanatextiles/storefront/internal/model"
	"github.com/mohanatextiles/storefront/internal/repository"
)

var (
	_ repository.AdminRepository    = (*Admins)(nil)
	_ repository.ProductRepository  = (*Products)(nil)
	_ repository.CategoryRepository = (*Categories)(nil)
	_ repository.SettingsRepository = (*Settings)(nil)
)

// clock hands out strictly increasing timestamps so ordering by creation
// time is deterministic.
type clock struct{ last time.Time }

func (c *clock) next() time.Time {
	now := time.Now().UTC()
	if !now.After(c.last) {
		now = c.last.Add(time.Microsecond)
	}
	c.last = now
	return now
}

// Admins stores accounts keyed by id.
type Admins struct {
	mu   sync.RWMutex
	rows []model.Admin
	clk  clock
}

func NewAdmins() *Admins { return &Admins{} }

func (r *Admins) Create(_ context.Context, a *model.Admin) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, x := range r.rows {
		if x.Email == a.Email {
			return errs.ErrConflict
		}
	}
	now := r.clk.next()
	a.CreatedAt, a.UpdatedAt = now, now
	r.rows = append(r.rows, *a)
	return nil
}

func (r *Admins) find(pred func(model.Admin) bool) (*model.Admin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, x := range r.rows {
		if pred(x) {
			c := x
			return &c, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (r *Admins) GetByID(_ context.Context, id string) (*model.Admin, error) {
	return r.find(func(a model.Admin) bool { return a.ID == id })
}

func (r *Admins) GetByEmail(_ context.Context, email string) (*model.Admin, error) {
	return r.find(func(a model.Admin) bool { return a.Email == email })
}

func (r *Admins) List(context.Context) ([]model.Admin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]model.Admin{}, r.rows...), nil
}

// Products stores catalog rows.
type Products struct {
	mu   sync.Mutex
	rows map[string]model.Product
	clk  clock
}

func NewProducts() *Products { return &Products{rows: map[string]model.Product{}} }

func (r *Products) List(_ context.Context, enabledOnly bool, category string) ([]model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Product{}
	for _, p := range r.rows {
		if (enabledOnly && !p.Enabled) || (category != "" && p.Category != category) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *Products) Get(_ context.Context, id string) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &p, nil
}

func (r *Products) Create(_ context.Context, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[p.ID]; ok {
		return errs.ErrConflict
	}
	now := r.clk.next()
	p.CreatedAt, p.UpdatedAt = now, now
	r.rows[p.ID] = *p
	return nil
}

// Update holds the lock across mutate, which gives the same isolation as a
// row lock.
func (r *Products) Update(_ context.Context, id string, mutate repository.ProductMutator) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	if err := mutate(&p); err != nil {
		return nil, err
	}
	p.UpdatedAt = r.clk.next()
	r.rows[id] = p
	return &p, nil
}

func (r *Products) SetEnabled(_ context.Context, id string, enabled bool) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return false, nil
	}
	p.Enabled = enabled
	p.UpdatedAt = r.clk.next()
	r.rows[id] = p
	return true, nil
}

func (r *Products) Delete(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return false, nil
	}
	delete(r.rows, id)
	return true, nil
}

func (r *Products) Stats(context.Context) (model.ProductStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := model.ProductStats{Categories: []string{}}
	seen := map[string]bool{}
	for _, p := range r.rows {
		st.TotalProducts++
		if p.Enabled {
			st.EnabledProducts++
		}
		if !seen[p.Category] {
			seen[p.Category] = true
			st.Categories = append(st.Categories, p.Category)
		}
	}
	sort.Strings(st.Categories)
	return st, nil
}

// Categories stores categories in insertion order.
type Categories struct {
	mu   sync.Mutex
	rows []model.Category
	clk  clock
}

func NewCategories() *Categories { return &Categories{} }

func (r *Categories) ListEnabled(context.Context) ([]model.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Category{}
	for _, c := range r.rows {
		if c.Enabled {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *Categories) ListAll(context.Context) ([]model.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Category, 0, len(r.rows))
	for i := len(r.rows) - 1; i >= 0; i-- {
		out = append(out, r.rows[i])
	}
	return out, nil
}

func (r *Categories) find(pred func(model.Category) bool) (*model.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.rows {
		if pred(c) {
			cpy := c
			return &cpy, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (r *Categories) Get(_ context.Context, id string) (*model.Category, error) {
	return r.find(func(c model.Category) bool { return c.ID == id })
}

func (r *Categories) GetBySlug(_ context.Context, slug string) (*model.Category, error) {
	return r.find(func(c model.Category) bool { return c.Slug == slug })
}

// CreateBatch is all-or-nothing on slug uniqueness.
func (r *Categories) CreateBatch(_ context.Context, cs []*model.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	slugs := map[string]bool{}
	for _, c := range r.rows {
		slugs[c.Slug] = true
	}
	for _, c := range cs {
		if slugs[c.Slug] {
			return errs.ErrConflict
		}
		slugs[c.Slug] = true
	}
	for _, c := range cs {
		c.CreatedAt = r.clk.next()
		r.rows = append(r.rows, *c)
	}
	return nil
}

func (r *Categories) Update(_ context.Context, c *model.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := -1
	for i, x := range r.rows {
		if x.ID == c.ID {
			idx = i
		} else if x.Slug == c.Slug {
			return errs.ErrConflict
		}
	}
	if idx < 0 {
		return errs.ErrNotFound
	}
	c.CreatedAt = r.rows[idx].CreatedAt
	r.rows[idx] = *c
	return nil
}

func (r *Categories) Delete(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, c := range r.rows {
		if c.ID == id {
			r.rows = append(r.rows[:i], r.rows[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// Settings stores the singleton row.
type Settings struct {
	mu  sync.Mutex
	row *model.SiteSettings
}

func NewSettings() *Settings { return &Settings{} }

func (r *Settings) GetOrCreate(_ context.Context, d model.SiteSettings) (model.SiteSettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.row == nil {
		r.row = &d
	}
	return *r.row, nil
}

func (r *Settings) Update(_ context.Context, d model.SiteSettings, patch model.SettingsPatch) (model.SiteSettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.row == nil {
		r.row = &d
	}
	s := *r.row
	patch.Apply(&s)
	r.row = &s
	return s, nil
}
