package service_test

import (
	"testing"
	"time"

	"github.com/dzn7/meuburguer-sub000/internal/model"
	"github.com/dzn7/meuburguer-sub000/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestComputeStatisticsEmptySession(t *testing.T) {
	session := &model.RegisterSession{OpeningAmount: dec("100.00")}

	stats := service.ComputeStatistics(session, nil)

	assert.True(t, stats.CurrentBalance.Equal(dec("100.00")), "balance must equal opening amount")
	assert.True(t, stats.TotalEntries.IsZero())
	assert.True(t, stats.TotalExits.IsZero())
	assert.Equal(t, 0, stats.MovementCount)
}

func TestComputeStatisticsBalanceFold(t *testing.T) {
	session := &model.RegisterSession{OpeningAmount: dec("50.00")}
	movements := []model.CashMovement{
		{Kind: model.MovementEntry, Amount: dec("30.00")},
		{Kind: model.MovementEntry, Amount: dec("20.50")},
		{Kind: model.MovementExit, Amount: dec("15.25")},
	}

	stats := service.ComputeStatistics(session, movements)

	// 50.00 + 50.50 − 15.25
	assert.True(t, stats.CurrentBalance.Equal(dec("85.25")))
	assert.True(t, stats.TotalEntries.Equal(dec("50.50")))
	assert.True(t, stats.TotalExits.Equal(dec("15.25")))
	assert.Equal(t, 3, stats.MovementCount)
}

func TestBucketOrdersExcludesCancelledAndPreWindow(t *testing.T) {
	openedAt := time.Date(2026, 8, 20, 8, 0, 0, 0, time.UTC)
	session := &model.RegisterSession{OpenedAt: openedAt}

	orders := []model.OrderSnapshot{
		{ID: "o1", DeliveryType: model.DeliveryTypeDelivery, Total: dec("40.00"), Status: "completed", CreatedAt: openedAt.Add(time.Hour)},
		{ID: "o2", DeliveryType: model.DeliveryTypeDelivery, Total: dec("25.00"), Status: "completed", CreatedAt: openedAt.Add(2 * time.Hour)},
		{ID: "o3", DeliveryType: model.DeliveryTypePickup, Total: dec("10.00"), Status: model.OrderStatusCancelled, CreatedAt: openedAt.Add(time.Hour)},
		{ID: "o4", DeliveryType: model.DeliveryTypePickup, Total: dec("99.00"), Status: "completed", CreatedAt: openedAt.Add(-time.Hour)},
	}

	buckets := service.BucketOrders(session, orders)

	assert.Len(t, buckets, 1)
	assert.Equal(t, 2, buckets[model.DeliveryTypeDelivery].Count)
	assert.True(t, buckets[model.DeliveryTypeDelivery].Revenue.Equal(dec("65.00")))
}

func TestBucketOrdersExcludesPostCloseOrders(t *testing.T) {
	openedAt := time.Date(2026, 8, 20, 8, 0, 0, 0, time.UTC)
	closedAt := time.Date(2026, 8, 20, 22, 0, 0, 0, time.UTC)
	session := &model.RegisterSession{OpenedAt: openedAt, ClosedAt: &closedAt}

	orders := []model.OrderSnapshot{
		{ID: "in", DeliveryType: model.DeliveryTypeDineIn, Total: dec("30.00"), Status: "completed", CreatedAt: openedAt.Add(time.Hour)},
		{ID: "late", DeliveryType: model.DeliveryTypeDineIn, Total: dec("50.00"), Status: "completed", CreatedAt: closedAt.Add(time.Minute)},
	}

	buckets := service.BucketOrders(session, orders)

	assert.Equal(t, 1, buckets[model.DeliveryTypeDineIn].Count)
	assert.True(t, buckets[model.DeliveryTypeDineIn].Revenue.Equal(dec("30.00")))
}
