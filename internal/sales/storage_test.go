package sales

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

func newTestGormStorage(t *testing.T) *GormStorage {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(t, err)

	st, err := NewGormStorage(db, zaptest.NewLogger(t))
	require.NoError(t, err)
	return st
}

func testSale(t *testing.T, customer string, when time.Time) *Sale {
	t.Helper()
	a, err := NewSaleItem("p-1", "Beer", 5, dec("100"))
	require.NoError(t, err)
	b, err := NewSaleItem("p-2", "Water", 12, dec("30"))
	require.NoError(t, err)
	return NewSale("S-"+customer, customer, "Branch 1", []SaleItem{a, b}, when)
}

// storageContract runs the repository behaviour every backend must share.
func storageContract(t *testing.T, newStorage func(t *testing.T) Storage) {
	ctx := context.Background()

	t.Run("CreateAssignsIdentity", func(t *testing.T) {
		st := newStorage(t)
		created, err := st.Create(ctx, testSale(t, "Company ABC", time.Now()))
		require.NoError(t, err)

		assert.NotEmpty(t, created.ID)
		for _, item := range created.Items {
			assert.NotEmpty(t, item.ID)
		}
	})

	t.Run("CreateLeavesCallerSaleUntouched", func(t *testing.T) {
		st := newStorage(t)
		sale := testSale(t, "Company ABC", time.Now())

		created, err := st.Create(ctx, sale)
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.Empty(t, sale.ID)
		for _, item := range sale.Items {
			assert.Empty(t, item.ID)
		}
	})

	t.Run("FailedCreateAssignsNothing", func(t *testing.T) {
		st := newStorage(t)
		sale := testSale(t, "Company ABC", time.Now())
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		created, err := st.Create(cancelled, sale)
		require.Error(t, err)
		assert.Nil(t, created)
		assert.Empty(t, sale.ID)
		for _, item := range sale.Items {
			assert.Empty(t, item.ID)
		}

		all, err := st.GetAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("CreateKeepsExistingID", func(t *testing.T) {
		st := newStorage(t)
		sale := testSale(t, "Company ABC", time.Now())
		sale.ID = uuid.NewString()

		created, err := st.Create(ctx, sale)
		require.NoError(t, err)
		assert.Equal(t, sale.ID, created.ID)
	})

	t.Run("ReadRoundTrip", func(t *testing.T) {
		st := newStorage(t)
		created, err := st.Create(ctx, testSale(t, "Company ABC", time.Now()))
		require.NoError(t, err)

		got, err := st.Read(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, "Company ABC", got.Customer)
		assert.Equal(t, created.SaleNumber, got.SaleNumber)
		assert.False(t, got.IsCancelled())
		require.Len(t, got.Items, 2)
		assert.Equal(t, "Beer", got.Items[0].ProductName)
		assert.Equal(t, "Water", got.Items[1].ProductName)
		assertDecimal(t, "50", got.Items[0].Discount())
		assertDecimal(t, "72", got.Items[1].Discount())
		assertDecimal(t, "738", got.TotalAmount())
		assert.WithinDuration(t, created.SaleDate(), got.SaleDate(), time.Second)
	})

	t.Run("ReadMissing", func(t *testing.T) {
		st := newStorage(t)
		_, err := st.Read(ctx, uuid.NewString())
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = st.Read(ctx, "")
		assert.ErrorIs(t, err, ErrEmptyID)
	})

	t.Run("GetAllEmpty", func(t *testing.T) {
		st := newStorage(t)
		all, err := st.GetAll(ctx)
		require.NoError(t, err)
		assert.NotNil(t, all)
		assert.Empty(t, all)
	})

	t.Run("GetAllOrderedByDate", func(t *testing.T) {
		st := newStorage(t)
		base := time.Now().Add(-time.Hour)
		_, err := st.Create(ctx, testSale(t, "second", base.Add(time.Minute)))
		require.NoError(t, err)
		_, err = st.Create(ctx, testSale(t, "first", base))
		require.NoError(t, err)

		all, err := st.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "first", all[0].Customer)
		assert.Equal(t, "second", all[1].Customer)
	})

	t.Run("CancelOnce", func(t *testing.T) {
		st := newStorage(t)
		created, err := st.Create(ctx, testSale(t, "Company ABC", time.Now()))
		require.NoError(t, err)

		ok, err := st.Cancel(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		got, err := st.Read(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, got.IsCancelled())

		ok, err = st.Cancel(ctx, created.ID)
		assert.ErrorIs(t, err, ErrAlreadyCancelled)
		assert.False(t, ok)
	})

	t.Run("CancelMissing", func(t *testing.T) {
		st := newStorage(t)
		ok, err := st.Cancel(ctx, uuid.NewString())
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestLocalStorage(t *testing.T) {
	storageContract(t, func(t *testing.T) Storage { return NewLocalStorage() })
}

func TestGormStorage(t *testing.T) {
	storageContract(t, func(t *testing.T) Storage { return newTestGormStorage(t) })
}

func TestLocalStorage_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	st := NewLocalStorage()
	created, err := st.Create(ctx, testSale(t, "Company ABC", time.Now()))
	require.NoError(t, err)

	created.Customer = "mutated"
	require.NoError(t, created.Cancel())

	got, err := st.Read(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Company ABC", got.Customer)
	assert.False(t, got.IsCancelled())
}

func TestLocalStorage_ConcurrentCancelSucceedsOnce(t *testing.T) {
	ctx := context.Background()
	st := NewLocalStorage()
	created, err := st.Create(ctx, testSale(t, "Company ABC", time.Now()))
	require.NoError(t, err)

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := st.Cancel(ctx, created.ID)
			mu.Lock()
			defer mu.Unlock()
			if ok && err == nil {
				succeeded++
			} else if err != nil {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, rejected)
}

func TestLocalStorage_CreateHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	st := NewLocalStorage()
	_, err := st.Create(ctx, testSale(t, "Company ABC", time.Now()))
	assert.ErrorIs(t, err, context.Canceled)

	all, err := st.GetAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestGormStorage_CancelLosesRaceToConcurrentCancel(t *testing.T) {
	ctx := context.Background()
	st := newTestGormStorage(t)
	created, err := st.Create(ctx, testSale(t, "Company ABC", time.Now()))
	require.NoError(t, err)

	// Another writer cancels the sale between our read and our update.
	fired := false
	err = st.db.Callback().Update().Before("gorm:update").Register("sales_test:concurrent_cancel", func(db *gorm.DB) {
		if fired {
			return
		}
		fired = true
		db.AddError(db.Session(&gorm.Session{NewDB: true}).
			Exec("UPDATE sales SET is_cancelled = ? WHERE id = ?", true, created.ID).Error)
	})
	require.NoError(t, err)

	ok, err := st.Cancel(ctx, created.ID)
	assert.True(t, fired)
	assert.ErrorIs(t, err, ErrAlreadyCancelled)
	assert.False(t, ok)

	got, err := st.Read(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, got.IsCancelled())
}
