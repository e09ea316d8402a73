// Package cache implementa la caché de lecturas con espacios de nombres por
// tenant. Cada negocio (y cada usuario, para sus listas cross-tenant) tiene
// su propio espacio; invalidar un tenant descarta su espacio completo sin
// tocar los demás.
package cache

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/invoiceaz/billing-api/internal/application/tenant"
)

// Expiración por defecto de las entradas y frecuencia de limpieza.
const (
	defaultExpiration = 5 * time.Minute
	cleanupInterval   = 10 * time.Minute
)

var _ tenant.Cache = (*TenantCache)(nil)

// TenantCache agrupa una instancia de go-cache por espacio de nombres.
type TenantCache struct {
	mu     sync.RWMutex
	spaces map[string]*gocache.Cache
}

// NewTenantCache construye la caché vacía.
func NewTenantCache() *TenantCache {
	return &TenantCache{spaces: make(map[string]*gocache.Cache)}
}

// Get busca una clave dentro del espacio del tenant.
func (c *TenantCache) Get(tenantID, key string) (interface{}, bool) {
	c.mu.RLock()
	space, ok := c.spaces[tenantID]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return space.Get(key)
}

// Set guarda una clave dentro del espacio del tenant, creándolo si no existe.
func (c *TenantCache) Set(tenantID, key string, value interface{}) {
	c.mu.Lock()
	space, ok := c.spaces[tenantID]
	if !ok {
		space = gocache.New(defaultExpiration, cleanupInterval)
		c.spaces[tenantID] = space
	}
	c.mu.Unlock()
	space.SetDefault(key, value)
}

// Invalidate descarta el espacio completo del tenant. Se invoca tras toda
// escritura bajo ese tenant; los demás espacios no se ven afectados.
func (c *TenantCache) Invalidate(tenantID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.spaces, tenantID)
}
