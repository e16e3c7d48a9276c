package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/lawnchairsociety/DevSmtp/internal/mail"
)

func testMessage(i int) *mail.Message {
	return &mail.Message{
		ID:         mail.NewMessageID(),
		From:       mail.MustEmail(fmt.Sprintf("sender%d@example.com", i)),
		To:         []mail.Email{mail.MustEmail("inbox@example.com")},
		Data:       fmt.Sprintf("message %d", i),
		ReceivedAt: time.Now().UTC(),
	}
}

func TestMemoryStore_PreservesInsertionOrder(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	const n = 100
	for i := 0; i < n; i++ {
		if err := st.Store(ctx, testMessage(i)); err != nil {
			t.Fatalf("store %d failed: %v", i, err)
		}
	}

	msgs, err := st.Get(ctx)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(msgs) != n {
		t.Fatalf("got %d messages, want %d", len(msgs), n)
	}
	for i, msg := range msgs {
		if msg.Data != fmt.Sprintf("message %d", i) {
			t.Fatalf("position %d holds %q, order not preserved", i, msg.Data)
		}
	}
}

func TestMemoryStore_RejectsDuplicateID(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	msg := testMessage(0)
	if err := st.Store(ctx, msg); err != nil {
		t.Fatalf("first store failed: %v", err)
	}

	dup := testMessage(1)
	dup.ID = msg.ID
	err := st.Store(ctx, dup)
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("duplicate store: err = %v, want ErrDuplicateID", err)
	}

	if st.Len() != 1 {
		t.Errorf("store holds %d messages after rejected duplicate, want 1", st.Len())
	}
}

func TestMemoryStore_RejectsMissingID(t *testing.T) {
	st := NewMemoryStore()
	msg := testMessage(0)
	msg.ID = mail.MessageID{}

	if err := st.Store(context.Background(), msg); err == nil {
		t.Fatal("store without id should fail")
	}
}

func TestMemoryStore_FindByID(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	msg := testMessage(0)
	if err := st.Store(ctx, msg); err != nil {
		t.Fatalf("store failed: %v", err)
	}

	got, err := st.FindByID(ctx, msg.ID)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if got == nil || got.ID != msg.ID {
		t.Fatalf("got %+v, want the stored message", got)
	}

	// Absent id: nil, nil.
	got, err = st.FindByID(ctx, mail.NewMessageID())
	if err != nil {
		t.Fatalf("find absent failed: %v", err)
	}
	if got != nil {
		t.Fatalf("absent id returned %+v, want nil", got)
	}
}

func TestMemoryStore_FindByEmail(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	alice := mail.MustEmail("alice@example.com")
	bob := mail.MustEmail("bob@example.com")

	first := testMessage(0)
	first.From = alice
	second := testMessage(1)
	second.To = []mail.Email{bob, mail.MustEmail("carol@example.com")}
	third := testMessage(2)

	for _, msg := range []*mail.Message{first, second, third} {
		if err := st.Store(ctx, msg); err != nil {
			t.Fatalf("store failed: %v", err)
		}
	}

	// Matches as sender.
	msgs, err := st.FindByEmail(ctx, alice)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if len(msgs) != 1 || msgs[0].ID != first.ID {
		t.Fatalf("alice matched %d messages", len(msgs))
	}

	// Matches as one of several recipients.
	msgs, err = st.FindByEmail(ctx, bob)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if len(msgs) != 1 || msgs[0].ID != second.ID {
		t.Fatalf("bob matched %d messages", len(msgs))
	}

	// first and third still carry inbox as a recipient; second had its
	// recipients replaced.
	msgs, err = st.FindByEmail(ctx, mail.MustEmail("inbox@example.com"))
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("inbox matched %d messages, want 2", len(msgs))
	}

	// No match: empty, no error.
	msgs, err = st.FindByEmail(ctx, mail.MustEmail("nobody@example.com"))
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("nobody matched %d messages", len(msgs))
	}
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	if err := st.Store(ctx, testMessage(0)); err != nil {
		t.Fatalf("store failed: %v", err)
	}

	msgs, _ := st.Get(ctx)
	msgs[0] = nil

	again, _ := st.Get(ctx)
	if again[0] == nil {
		t.Fatal("mutating a Get result must not affect the store")
	}
}

func TestMemoryStore_HonorsCancellation(t *testing.T) {
	st := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := st.Store(ctx, testMessage(0)); !errors.Is(err, context.Canceled) {
		t.Errorf("Store: err = %v", err)
	}
	if _, err := st.Get(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Get: err = %v", err)
	}
	if _, err := st.FindByID(ctx, mail.NewMessageID()); !errors.Is(err, context.Canceled) {
		t.Errorf("FindByID: err = %v", err)
	}
	if _, err := st.FindByEmail(ctx, mail.MustEmail("a@example.com")); !errors.Is(err, context.Canceled) {
		t.Errorf("FindByEmail: err = %v", err)
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	const writers = 20
	const perWriter = 25

	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				msg := testMessage(w*perWriter + i)
				if err := st.Store(ctx, msg); err != nil {
					t.Errorf("concurrent store failed: %v", err)
				}
				// Interleave reads with the writes.
				if _, err := st.Get(ctx); err != nil {
					t.Errorf("concurrent get failed: %v", err)
				}
			}
		}(w)
	}
	wg.Wait()

	if st.Len() != writers*perWriter {
		t.Fatalf("store holds %d messages, want %d", st.Len(), writers*perWriter)
	}
}

// TestMemoryStore_RandomWorkload drives a generated sequence of writes
// and checks Get always reflects exactly the accepted ones, in order.
func TestMemoryStore_RandomWorkload(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		st := NewMemoryStore()
		ctx := context.Background()

		n := rapid.IntRange(0, 40).Draw(t, "writes")
		var accepted []mail.MessageID
		for i := 0; i < n; i++ {
			msg := testMessage(i)
			reuse := len(accepted) > 0 && rapid.Bool().Draw(t, "reuseID")
			if reuse {
				msg.ID = accepted[rapid.IntRange(0, len(accepted)-1).Draw(t, "dupIdx")]
			}

			err := st.Store(ctx, msg)
			if reuse {
				if !errors.Is(err, ErrDuplicateID) {
					t.Fatalf("reused id accepted: %v", err)
				}
				continue
			}
			if err != nil {
				t.Fatalf("store failed: %v", err)
			}
			accepted = append(accepted, msg.ID)
		}

		msgs, err := st.Get(ctx)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if len(msgs) != len(accepted) {
			t.Fatalf("store holds %d, want %d", len(msgs), len(accepted))
		}
		for i, id := range accepted {
			if msgs[i].ID != id {
				t.Fatalf("position %d holds %q, want %q", i, msgs[i].ID, id)
			}
		}
	})
}
