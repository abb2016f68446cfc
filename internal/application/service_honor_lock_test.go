package application

import (
	"context"
	"reflect"
	"testing"

	"github.com/bps3275/sinora/internal/domain"
	"github.com/bps3275/sinora/internal/ports"
)

type scriptedHonor struct {
	ports.HonorRepository
	expected [][]domain.MonthlyHonor
	actual   []domain.MonthlyHonor
	reads    int
}

func (h *scriptedHonor) ExpectedTotals(context.Context, int, int) ([]domain.MonthlyHonor, error) {
	i := h.reads
	if i >= len(h.expected) {
		i = len(h.expected) - 1
	}
	h.reads++
	return h.expected[i], nil
}

func (h *scriptedHonor) ListMonthly(context.Context, int, int) ([]domain.MonthlyHonor, error) {
	return h.actual, nil
}

type lockRecorder struct {
	ports.MitraRepository
	calls [][]string
}

func (m *lockRecorder) LockMany(_ context.Context, ids []string) (map[string]domain.Mitra, error) {
	m.calls = append(m.calls, append([]string(nil), ids...))
	out := make(map[string]domain.Mitra, len(ids))
	for _, id := range ids {
		out[id] = domain.Mitra{SobatID: id}
	}
	return out, nil
}

func honorRow(sobatID string, total int64) domain.MonthlyHonor {
	return domain.MonthlyHonor{SobatID: sobatID, Month: 3, Year: 2025, TotalHonor: total}
}

func TestLockedTotalsLocksSortedAndRereadsNewcomers(t *testing.T) {
	honor := &scriptedHonor{
		expected: [][]domain.MonthlyHonor{
			{honorRow("1002", 500), honorRow("1001", 300)},
			{honorRow("1002", 500), honorRow("1001", 300), honorRow("1003", 100)},
		},
		actual: []domain.MonthlyHonor{honorRow("1001", 300), honorRow("1004", 50)},
	}
	mitra := &lockRecorder{}

	expected, actual, err := lockedTotals(context.Background(), ports.TxRepositories{Honor: honor, Mitra: mitra}, 3, 2025)
	if err != nil {
		t.Fatalf("locked totals failed: %v", err)
	}

	want := [][]string{{"1001", "1002", "1004"}, {"1003"}}
	if !reflect.DeepEqual(mitra.calls, want) {
		t.Fatalf("expected lock calls %v, got %v", want, mitra.calls)
	}
	if len(expected) != 3 || len(actual) != 2 {
		t.Fatalf("expected totals from the stable read, got %d expected and %d actual", len(expected), len(actual))
	}
	if honor.reads != 3 {
		t.Fatalf("expected three reads, got %d", honor.reads)
	}
}
