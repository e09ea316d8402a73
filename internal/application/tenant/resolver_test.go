package tenant

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invoiceaz/billing-api/internal/domain"
	"github.com/invoiceaz/billing-api/internal/domain/entity"
)

type memMembershipRepo struct {
	memberships []*entity.Membership
}

func (r *memMembershipRepo) Create(m *entity.Membership) error {
	r.memberships = append(r.memberships, m)
	return nil
}

func (r *memMembershipRepo) Update(m *entity.Membership) error { return nil }
func (r *memMembershipRepo) Delete(id string) error            { return nil }

func (r *memMembershipRepo) GetByID(id string) (*entity.Membership, error) {
	for _, m := range r.memberships {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, nil
}

func (r *memMembershipRepo) GetByUserAndBusiness(userID, businessID string) (*entity.Membership, error) {
	for _, m := range r.memberships {
		if m.UserID == userID && m.BusinessID == businessID {
			return m, nil
		}
	}
	return nil, nil
}

func (r *memMembershipRepo) ListByBusiness(businessID string) ([]*entity.Membership, error) {
	var out []*entity.Membership
	for _, m := range r.memberships {
		if m.BusinessID == businessID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memMembershipRepo) CountByBusiness(businessID string) (int, error) {
	list, _ := r.ListByBusiness(businessID)
	return len(list), nil
}

type memBusinessRepo struct {
	businesses map[string]*entity.Business
}

func (r *memBusinessRepo) Create(b *entity.Business) error {
	r.businesses[b.ID] = b
	return nil
}

func (r *memBusinessRepo) Update(b *entity.Business) error { return r.Create(b) }
func (r *memBusinessRepo) Delete(id string) error          { delete(r.businesses, id); return nil }

func (r *memBusinessRepo) GetByID(id string) (*entity.Business, error) {
	return r.businesses[id], nil
}

func (r *memBusinessRepo) ListByUser(userID string) ([]*entity.Business, error) { return nil, nil }
func (r *memBusinessRepo) CountOwnedBy(userID string) (int, error)              { return 0, nil }

type memCache struct {
	mu   sync.Mutex
	data map[string]map[string]interface{}
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string]map[string]interface{})}
}

func (c *memCache) Get(tenantID, key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ns, ok := c.data[tenantID]
	if !ok {
		return nil, false
	}
	v, ok := ns[key]
	return v, ok
}

func (c *memCache) Set(tenantID, key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data[tenantID] == nil {
		c.data[tenantID] = make(map[string]interface{})
	}
	c.data[tenantID][key] = value
}

func (c *memCache) Invalidate(tenantID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, tenantID)
}

func newTestResolver() (*Resolver, *memMembershipRepo, *memBusinessRepo, *memCache) {
	memberships := &memMembershipRepo{}
	businesses := &memBusinessRepo{businesses: make(map[string]*entity.Business)}
	cache := newMemCache()
	return NewResolver(memberships, businesses, cache), memberships, businesses, cache
}

func TestResolve_MembresiaActiva(t *testing.T) {
	r, memberships, businesses, _ := newTestResolver()
	businesses.Create(&entity.Business{ID: "biz-1", Name: "Araz", IsActive: true})
	memberships.Create(&entity.Membership{ID: "mem-1", UserID: "user-1", BusinessID: "biz-1", Role: entity.RoleOwner})

	m, b, err := r.Resolve("user-1", "biz-1")
	require.NoError(t, err)
	assert.Equal(t, "mem-1", m.ID)
	assert.Equal(t, entity.RoleOwner, m.Role)
	assert.Equal(t, "Araz", b.Name)
}

func TestResolve_SinMembresia(t *testing.T) {
	r, _, businesses, _ := newTestResolver()
	businesses.Create(&entity.Business{ID: "biz-1", IsActive: true})

	_, _, err := r.Resolve("user-1", "biz-1")
	assert.ErrorIs(t, err, domain.ErrNoMembership)
}

// Un negocio inexistente produce el mismo error que uno ajeno: el caller no
// puede sondear qué IDs existen.
func TestResolve_NegocioInexistenteIndistinguible(t *testing.T) {
	r, memberships, businesses, _ := newTestResolver()
	businesses.Create(&entity.Business{ID: "biz-1", IsActive: true})
	memberships.Create(&entity.Membership{ID: "mem-1", UserID: "user-1", BusinessID: "biz-1", Role: entity.RoleOwner})

	_, _, errGhost := r.Resolve("user-1", "biz-fantasma")
	_, _, errForeign := r.Resolve("user-2", "biz-1")
	assert.ErrorIs(t, errGhost, domain.ErrNoMembership)
	assert.ErrorIs(t, errForeign, domain.ErrNoMembership)
	assert.Equal(t, errGhost, errForeign)
}

func TestResolve_NegocioInactivo(t *testing.T) {
	r, memberships, businesses, _ := newTestResolver()
	businesses.Create(&entity.Business{ID: "biz-1", IsActive: false})
	memberships.Create(&entity.Membership{ID: "mem-1", UserID: "user-1", BusinessID: "biz-1", Role: entity.RoleOwner})

	_, _, err := r.Resolve("user-1", "biz-1")
	assert.ErrorIs(t, err, domain.ErrNoMembership)
}

func TestResolve_ParametrosVacios(t *testing.T) {
	r, _, _, _ := newTestResolver()
	_, _, err := r.Resolve("", "biz-1")
	assert.ErrorIs(t, err, domain.ErrNoMembership)
	_, _, err = r.Resolve("user-1", "")
	assert.ErrorIs(t, err, domain.ErrNoMembership)
}

func TestSwitch_DescartaElNamespaceAnterior(t *testing.T) {
	r, memberships, businesses, cache := newTestResolver()
	businesses.Create(&entity.Business{ID: "biz-1", IsActive: true})
	businesses.Create(&entity.Business{ID: "biz-2", IsActive: true})
	memberships.Create(&entity.Membership{ID: "mem-1", UserID: "user-1", BusinessID: "biz-1", Role: entity.RoleOwner})
	memberships.Create(&entity.Membership{ID: "mem-2", UserID: "user-1", BusinessID: "biz-2", Role: entity.RoleManager})

	cache.Set("biz-1", "invoices:all", []string{"INV-1001"})
	cache.Set("user:user-1", "businesses", []string{"biz-1", "biz-2"})

	m, _, err := r.Switch("user-1", "biz-1", "biz-2")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleManager, m.Role)

	// El namespace del negocio anterior desaparece completo
	_, ok := cache.Get("biz-1", "invoices:all")
	assert.False(t, ok)
	// La lista de negocios vive en el namespace del usuario y sobrevive
	v, ok := cache.Get("user:user-1", "businesses")
	require.True(t, ok)
	assert.Equal(t, []string{"biz-1", "biz-2"}, v)
}

func TestSwitch_DestinoSinMembresiaNoInvalida(t *testing.T) {
	r, memberships, businesses, cache := newTestResolver()
	businesses.Create(&entity.Business{ID: "biz-1", IsActive: true})
	memberships.Create(&entity.Membership{ID: "mem-1", UserID: "user-1", BusinessID: "biz-1", Role: entity.RoleOwner})
	cache.Set("biz-1", "clients:all", []string{"c1"})

	_, _, err := r.Switch("user-1", "biz-1", "biz-ajeno")
	assert.ErrorIs(t, err, domain.ErrNoMembership)

	// El switch fallido no descarta el caché del negocio vigente
	_, ok := cache.Get("biz-1", "clients:all")
	assert.True(t, ok)
}

func TestSameTenant(t *testing.T) {
	assert.NoError(t, SameTenant("biz-1", "biz-1"))
	assert.ErrorIs(t, SameTenant("biz-1", "biz-2"), domain.ErrTenantMismatch)
	assert.ErrorIs(t, SameTenant("", "biz-1"), domain.ErrTenantMismatch)
}
