package raffle

import (
	"errors"
	"testing"
)

func testRandomness() []byte {
	return []byte("8d7f0c2871b9d5a2b0df42d14b9e7480")
}

func TestDrawWinners_Deterministic(t *testing.T) {
	t.Parallel()

	d := NewDrawManager(testLogger())
	qualified := qualifiedFixture(10)

	first, err := d.DrawWinners(testRandomness(), qualified, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := d.DrawWinners(testRandomness(), qualified, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(first) != 3 {
		t.Fatalf("unexpected winner count: %d", len(first))
	}

	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("draw is not deterministic at index %d: %+v vs %+v", i, first[i], second[i])
		}
	}

	different, err := d.DrawWinners([]byte("another-beacon-round-entirely!!"), qualified, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	same := true
	for i := range first {
		if first[i].WalletAddress != different[i].WalletAddress ||
			first[i].TicketNumber != different[i].TicketNumber {
			same = false
		}
	}

	if same {
		t.Error("different randomness produced an identical draw")
	}
}

func TestDrawWinners_WithoutReplacement(t *testing.T) {
	t.Parallel()

	d := NewDrawManager(testLogger())
	qualified := qualifiedFixture(10)

	winners, err := d.DrawWinners(testRandomness(), qualified, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seen := make(map[string]bool, len(winners))
	for _, w := range winners {
		if seen[w.WalletAddress] {
			t.Fatalf("wallet drawn twice: %s", w.WalletAddress)
		}

		seen[w.WalletAddress] = true
	}
}

func TestDrawWinners_TicketNumbersResolve(t *testing.T) {
	t.Parallel()

	d := NewDrawManager(testLogger())
	m := newTestTicketManager()

	qualified := qualifiedFixture(10)
	tickets := m.GenerateRaffleTickets(qualified)

	winners, err := d.DrawWinners(testRandomness(), qualified, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, w := range winners {
		if w.TicketNumber < 1 || w.TicketNumber > len(tickets) {
			t.Fatalf("winning ticket %d outside the universe [1,%d]", w.TicketNumber, len(tickets))
		}

		// The reported ticket number must map back to the winning
		// wallet in the flat ticket list.
		ticket := tickets[w.TicketNumber-1]
		if ticket.WalletAddress != w.WalletAddress {
			t.Errorf("ticket %d belongs to %s, drawn for %s",
				w.TicketNumber, ticket.WalletAddress, w.WalletAddress)
		}
	}
}

func TestDrawWinners_CountClampedToWallets(t *testing.T) {
	t.Parallel()

	d := NewDrawManager(testLogger())
	qualified := qualifiedFixture(3)

	winners, err := d.DrawWinners(testRandomness(), qualified, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(winners) != 3 {
		t.Errorf("unexpected winner count, want: 3, got: %d", len(winners))
	}
}

func TestDrawWinners_EmptySet(t *testing.T) {
	t.Parallel()

	d := NewDrawManager(testLogger())

	if _, err := d.DrawWinners(testRandomness(), nil, 1); !errors.Is(err, ErrEmptyQualificationSet) {
		t.Fatalf("want ErrEmptyQualificationSet, got: %v", err)
	}

	zeroTickets := []QualifiedWallet{
		{Wallet: "0xaaa", Rank: 1, Score: 10, Tickets: 0},
	}

	if _, err := d.DrawWinners(testRandomness(), zeroTickets, 1); !errors.Is(err, ErrNoTickets) {
		t.Fatalf("want ErrNoTickets, got: %v", err)
	}
}

func TestDraw_EmptyDayStillAuditable(t *testing.T) {
	t.Parallel()

	m := newTestTicketManager()
	d := NewDrawManager(testLogger())

	qualified := m.GetDailyQualifiedWallets(nil)
	if len(qualified) != 0 {
		t.Fatalf("unexpected qualified count: %d", len(qualified))
	}

	tree := BuildTree(qualified)
	if tree.Root != emptySetRoot {
		t.Errorf("unexpected root for an empty day, want: %s, got: %s", emptySetRoot, tree.Root)
	}

	winners, err := d.DrawWinners(testRandomness(), qualified, 3)
	if !errors.Is(err, ErrEmptyQualificationSet) && !errors.Is(err, ErrNoTickets) {
		t.Fatalf("want an empty-day sentinel error, got: %v", err)
	}

	if len(winners) != 0 {
		t.Errorf("unexpected winners on an empty day: %d", len(winners))
	}
}

func TestDrawWinners_WeightBias(t *testing.T) {
	t.Parallel()

	d := NewDrawManager(testLogger())

	// One wallet with 9900 of 10000 tickets should win the first
	// draw for nearly any beacon value.
	qualified := []QualifiedWallet{
		{Wallet: "0xwhale", Rank: 1, Score: 1000, Tickets: 9900},
		{Wallet: "0xminnow", Rank: 2, Score: 900, Tickets: 100},
	}

	wins := 0

	for i := 0; i < 50; i++ {
		randomness := append(testRandomness(), byte(i))

		winners, err := d.DrawWinners(randomness, qualified, 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if winners[0].WalletAddress == "0xwhale" {
			wins++
		}
	}

	if wins < 45 {
		t.Errorf("heavily weighted wallet won only %d of 50 draws", wins)
	}
}
