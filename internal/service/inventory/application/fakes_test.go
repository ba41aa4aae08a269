// internal/service/inventory/application/fakes_test.go
package application

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"depot/internal/service/inventory/domain"
	"depot/internal/service/inventory/domain/port"
)

// fakeStore 是内存版的持久层，供应用服务测试使用。
// 读操作一律返回副本，模拟“重新加载”的语义，避免测试借助指针
// 共享绕过 Save。
type fakeStore struct {
	mu sync.Mutex

	items        map[int64]*domain.Item
	reservations map[int64]*domain.Reservation

	nextItemID        int64
	nextReservationID int64

	// failReservationSave 中的预约 ID 在 Save 时返回错误
	failReservationSave map[int64]error

	// itemLockHook 在下一次商品锁定读时触发一次，用来在
	// 拿锁窗口里插入一个竞争者的提交
	itemLockHook func()
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		items:               make(map[int64]*domain.Item),
		reservations:        make(map[int64]*domain.Reservation),
		failReservationSave: make(map[int64]error),
	}
}

func (s *fakeStore) addItem(item *domain.Item) *domain.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextItemID++
	item.ID = s.nextItemID
	s.items[item.ID] = cloneItem(item)
	return item
}

func (s *fakeStore) addReservation(r *domain.Reservation) *domain.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextReservationID++
	r.ID = s.nextReservationID
	s.reservations[r.ID] = cloneReservation(r)
	return r
}

func (s *fakeStore) item(id int64) *domain.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItem(s.items[id])
}

func (s *fakeStore) reservation(id int64) *domain.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneReservation(s.reservations[id])
}

// onItemLock 注册一个一次性钩子，在下一次 FindByIDForUpdate
// 返回之前执行，模拟竞争者赶在锁获取期间提交。
func (s *fakeStore) onItemLock(hook func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.itemLockHook = hook
}

func (s *fakeStore) takeItemLockHook() func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	hook := s.itemLockHook
	s.itemLockHook = nil
	return hook
}

// txSnapshot 模拟 InnoDB REPEATABLE READ：事务开始时固定一份快照，
// 普通读返回快照内容，锁定读返回已提交的当前状态。
// written* 记录本事务写过的主键，回滚时只还原自己的写入。
type txSnapshot struct {
	items        map[int64]*domain.Item
	reservations map[int64]*domain.Reservation

	writtenItems        map[int64]bool
	writtenReservations map[int64]bool
}

type txSnapshotKey struct{}

func snapshotFromCtx(ctx context.Context) *txSnapshot {
	snap, _ := ctx.Value(txSnapshotKey{}).(*txSnapshot)
	return snap
}

func cloneItem(item *domain.Item) *domain.Item {
	if item == nil {
		return nil
	}
	copied := *item
	return &copied
}

func cloneReservation(r *domain.Reservation) *domain.Reservation {
	if r == nil {
		return nil
	}
	copied := *r
	return &copied
}

type fakeItemRepo struct{ store *fakeStore }

func (f *fakeItemRepo) FindByID(ctx context.Context, id int64) (*domain.Item, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	item, ok := f.store.items[id]
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	return cloneItem(item), nil
}

func (f *fakeItemRepo) FindBySKU(ctx context.Context, sku string) (*domain.Item, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	for _, item := range f.store.items {
		if item.SKU == sku {
			return cloneItem(item), nil
		}
	}
	return nil, domain.ErrItemNotFound
}

func (f *fakeItemRepo) FindByIDForUpdate(ctx context.Context, id int64) (*domain.Item, error) {
	// 锁定读是当前读：钩子先执行（竞争者提交），之后才读到最新状态
	if hook := f.store.takeItemLockHook(); hook != nil {
		hook()
	}
	return f.FindByID(ctx, id)
}

func (f *fakeItemRepo) FindBySKUForUpdate(ctx context.Context, sku string) (*domain.Item, error) {
	return f.FindBySKU(ctx, sku)
}

func (f *fakeItemRepo) FindAll(ctx context.Context) ([]*domain.Item, error) {
	return f.filter(func(*domain.Item) bool { return true }), nil
}

func (f *fakeItemRepo) FindAvailable(ctx context.Context) ([]*domain.Item, error) {
	return f.filter(func(i *domain.Item) bool { return i.IsActive && i.AvailableQuantity > 0 }), nil
}

func (f *fakeItemRepo) FindByCategory(ctx context.Context, category string) ([]*domain.Item, error) {
	return f.filter(func(i *domain.Item) bool { return i.IsActive && i.Category == category }), nil
}

func (f *fakeItemRepo) FindByBrand(ctx context.Context, brand string) ([]*domain.Item, error) {
	return f.filter(func(i *domain.Item) bool { return i.IsActive && i.Brand == brand }), nil
}

func (f *fakeItemRepo) filter(keep func(*domain.Item) bool) []*domain.Item {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	var out []*domain.Item
	for _, item := range f.store.items {
		if keep(item) {
			out = append(out, cloneItem(item))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeItemRepo) ExistsBySKU(ctx context.Context, sku string) (bool, error) {
	_, err := f.FindBySKU(ctx, sku)
	if errors.Is(err, domain.ErrItemNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (f *fakeItemRepo) ExistsByName(ctx context.Context, name string) (bool, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	for _, item := range f.store.items {
		if strings.EqualFold(item.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeItemRepo) Save(ctx context.Context, item *domain.Item) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	if item.ID == 0 {
		f.store.nextItemID++
		item.ID = f.store.nextItemID
	}
	if snap := snapshotFromCtx(ctx); snap != nil {
		snap.writtenItems[item.ID] = true
	}
	f.store.items[item.ID] = cloneItem(item)
	return nil
}

type fakeReservationRepo struct{ store *fakeStore }

// FindByID 是普通读：事务内返回事务开始时的快照，
// 和 REPEATABLE READ 的一致性读行为一致。
func (f *fakeReservationRepo) FindByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	if snap := snapshotFromCtx(ctx); snap != nil {
		r, ok := snap.reservations[id]
		if !ok {
			return nil, domain.ErrReservationNotFound
		}
		return cloneReservation(r), nil
	}
	return f.findCurrent(id)
}

// FindByIDForUpdate 是锁定读，绕过快照返回已提交的当前状态。
func (f *fakeReservationRepo) FindByIDForUpdate(ctx context.Context, id int64) (*domain.Reservation, error) {
	return f.findCurrent(id)
}

func (f *fakeReservationRepo) findCurrent(id int64) (*domain.Reservation, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	r, ok := f.store.reservations[id]
	if !ok {
		return nil, domain.ErrReservationNotFound
	}
	return cloneReservation(r), nil
}

func (f *fakeReservationRepo) FindByCustomer(ctx context.Context, customerID string) ([]*domain.Reservation, error) {
	return f.filter(func(r *domain.Reservation) bool { return r.CustomerID == customerID }), nil
}

func (f *fakeReservationRepo) FindByItem(ctx context.Context, itemID int64) ([]*domain.Reservation, error) {
	return f.filter(func(r *domain.Reservation) bool { return r.ItemID == itemID }), nil
}

func (f *fakeReservationRepo) FindExpiredActive(ctx context.Context, now time.Time) ([]*domain.Reservation, error) {
	return f.filter(func(r *domain.Reservation) bool { return r.IsActive() && r.IsOverdue(now) }), nil
}

func (f *fakeReservationRepo) filter(keep func(*domain.Reservation) bool) []*domain.Reservation {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	var out []*domain.Reservation
	for _, r := range f.store.reservations {
		if keep(r) {
			out = append(out, cloneReservation(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeReservationRepo) Save(ctx context.Context, r *domain.Reservation) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	if r.ID == 0 {
		f.store.nextReservationID++
		r.ID = f.store.nextReservationID
	}
	if err, ok := f.store.failReservationSave[r.ID]; ok {
		return err
	}
	if snap := snapshotFromCtx(ctx); snap != nil {
		snap.writtenReservations[r.ID] = true
	}
	f.store.reservations[r.ID] = cloneReservation(r)
	return nil
}

// fakeTxManager 在事务开始时固定一份快照放进 context，普通读
// 从快照取数（REPEATABLE READ 的一致性读）；fn 出错时只还原本
// 事务写过的行，并发竞争者已提交的写入不受影响。
type fakeTxManager struct{ store *fakeStore }

func (m fakeTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.store.mu.Lock()
	snap := &txSnapshot{
		items:               make(map[int64]*domain.Item, len(m.store.items)),
		reservations:        make(map[int64]*domain.Reservation, len(m.store.reservations)),
		writtenItems:        make(map[int64]bool),
		writtenReservations: make(map[int64]bool),
	}
	for id, item := range m.store.items {
		snap.items[id] = cloneItem(item)
	}
	for id, r := range m.store.reservations {
		snap.reservations[id] = cloneReservation(r)
	}
	m.store.mu.Unlock()

	if err := fn(context.WithValue(ctx, txSnapshotKey{}, snap)); err != nil {
		m.rollback(snap)
		return err
	}
	return nil
}

func (m fakeTxManager) rollback(snap *txSnapshot) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	for id := range snap.writtenItems {
		if before, ok := snap.items[id]; ok {
			m.store.items[id] = cloneItem(before)
		} else {
			delete(m.store.items, id)
		}
	}
	for id := range snap.writtenReservations {
		if before, ok := snap.reservations[id]; ok {
			m.store.reservations[id] = cloneReservation(before)
		} else {
			delete(m.store.reservations, id)
		}
	}
}

type fakeCache struct {
	mu              sync.Mutex
	evictedItems    []int64
	evictedAllCount int
}

func (c *fakeCache) EvictItem(ctx context.Context, itemID int64, sku string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evictedItems = append(c.evictedItems, itemID)
}

func (c *fakeCache) EvictReservation(ctx context.Context, reservationID int64) {}

func (c *fakeCache) EvictAllItems(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evictedAllCount++
}

type fakePublisher struct {
	mu     sync.Mutex
	events []domain.StockEvent
}

func (p *fakePublisher) Publish(ctx context.Context, event domain.StockEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *fakePublisher) byType(eventType domain.StockEventType) []domain.StockEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []domain.StockEvent
	for _, e := range p.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// policyFunc 把函数适配成 port.ReservationPolicy
type policyFunc func(ctx context.Context, fact port.ReservationFact) (bool, error)

func (f policyFunc) Allow(ctx context.Context, fact port.ReservationFact) (bool, error) {
	return f(ctx, fact)
}
