package event

import (
	"errors"
	"testing"

	"supply_go/internal/domain"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleOrderAccepted() *OrderAcceptedEvent {
	return &OrderAcceptedEvent{
		BaseEvent: BaseEvent{ID: "5f1b2c3d-0000-4000-8000-000000000001", Seq: 7, Ts: 1_700_000_000_000},
		Account:   "alice",
		Quantity:  2,
		NewTotal:  3,
		Remaining: 45,
	}
}

func sampleSupplyReset() *SupplyResetEvent {
	return &SupplyResetEvent{
		BaseEvent:       BaseEvent{ID: "5f1b2c3d-0000-4000-8000-000000000002", Seq: 8, Ts: 1_700_086_400_000},
		Remaining:       50,
		PreviousResetAt: 1_700_000_000_000,
	}
}

func TestEncodeGolden(t *testing.T) {
	g := goldie.New(t)

	data, err := Encode(sampleOrderAccepted())
	require.NoError(t, err)
	g.Assert(t, "order_accepted_v1", data)

	data, err = Encode(sampleSupplyReset())
	require.NoError(t, err)
	g.Assert(t, "supply_reset_v1", data)
}

func TestDecodeRoundTrip(t *testing.T) {
	for _, n := range []Notification{sampleOrderAccepted(), sampleSupplyReset()} {
		t.Run(string(n.GetType()), func(t *testing.T) {
			data, err := Encode(n)
			require.NoError(t, err)

			got, err := Decode(data)
			require.NoError(t, err)
			assert.Equal(t, n, got)
		})
	}
}

func TestDecodeRejects(t *testing.T) {
	t.Run("garbage", func(t *testing.T) {
		_, err := Decode([]byte("nope"))
		assert.Error(t, err)
	})

	t.Run("future version", func(t *testing.T) {
		_, err := Decode([]byte(`{"version":2,"type":"order_accepted","payload":{}}`))
		assert.True(t, errors.Is(err, domain.ErrUnsupportedVersion))
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := Decode([]byte(`{"version":1,"type":"pizza","payload":{}}`))
		assert.ErrorContains(t, err, "unknown notification type")
	})
}

func TestNewBase(t *testing.T) {
	a := NewBase(1, 10)
	b := NewBase(2, 20)

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, uint64(2), b.GetSeq())
	assert.Equal(t, domain.Timestamp(20), b.GetTs())
}

func TestOrderRequestPool(t *testing.T) {
	req := AcquireOrderRequest()
	require.NotNil(t, req.Reply)
	assert.Equal(t, 1, cap(req.Reply))

	req.Account = "alice"
	req.Quantity = 3
	req.Reply <- OrderReply{Err: domain.ErrZeroQuantity}
	ReleaseOrderRequest(req)

	assert.Empty(t, req.Account)
	assert.Zero(t, req.Quantity)
	assert.Len(t, req.Reply, 0)

	ReleaseOrderRequest(nil)
	Warmup()
}
