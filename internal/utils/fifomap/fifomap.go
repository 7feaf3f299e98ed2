package fifomap

import (
	"container/list"
	"sync"
)

// FIFOMap is a bounded map that evicts its oldest entry once the
// capacity is reached. Used as a recency set for transaction
// signatures and pool addresses so long-running loops never grow
// without bound.
type FIFOMap struct {
	maxSize  int
	elements *list.List
	items    map[interface{}]*list.Element
	lock     sync.RWMutex
}

type entry struct {
	key   interface{}
	value interface{}
}

func NewFIFOMap(maxSize int) *FIFOMap {
	if maxSize <= 0 {
		panic("maxSize must be positive")
	}
	return &FIFOMap{
		maxSize:  maxSize,
		elements: list.New(),
		items:    make(map[interface{}]*list.Element),
	}
}

func (m *FIFOMap) Set(key, value interface{}) {
	m.lock.Lock()
	defer m.lock.Unlock()

	if elem, exists := m.items[key]; exists {
		m.elements.MoveToFront(elem)
		elem.Value.(*entry).value = value
		return
	}

	if m.elements.Len() >= m.maxSize {
		oldest := m.elements.Back()
		if oldest != nil {
			delete(m.items, oldest.Value.(*entry).key)
			m.elements.Remove(oldest)
		}
	}

	elem := m.elements.PushFront(&entry{key, value})
	m.items[key] = elem
}

func (m *FIFOMap) Get(key interface{}) (interface{}, bool) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	if elem, exists := m.items[key]; exists {
		return elem.Value.(*entry).value, true
	}
	return nil, false
}

// Has reports membership without touching recency order.
func (m *FIFOMap) Has(key interface{}) bool {
	_, ok := m.Get(key)
	return ok
}

func (m *FIFOMap) Delete(key interface{}) {
	m.lock.Lock()
	defer m.lock.Unlock()

	if elem, exists := m.items[key]; exists {
		m.elements.Remove(elem)
		delete(m.items, key)
	}
}

func (m *FIFOMap) Len() int {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.elements.Len()
}

func (m *FIFOMap) Clear() {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.elements = list.New()
	m.items = make(map[interface{}]*list.Element)
}
