package memory

import "sync"

// keyLocker un mutex por clave, creado a demanda.
type keyLocker struct {
	locks sync.Map // string -> *sync.Mutex
}

func (k *keyLocker) lock(key string) func() {
	v, _ := k.locks.LoadOrStore(key, &sync.Mutex{})
	m := v.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}

// tenantLocker un RWMutex por tenant: los posteos toman lectura, la reconstrucción escritura.
type tenantLocker struct {
	locks sync.Map // string -> *sync.RWMutex
}

func (t *tenantLocker) get(tenantID string) *sync.RWMutex {
	v, _ := t.locks.LoadOrStore(tenantID, &sync.RWMutex{})
	return v.(*sync.RWMutex)
}

func (t *tenantLocker) rlock(tenantID string) func() {
	m := t.get(tenantID)
	m.RLock()
	return m.RUnlock
}

func (t *tenantLocker) lock(tenantID string) func() {
	m := t.get(tenantID)
	m.Lock()
	return m.Unlock
}
