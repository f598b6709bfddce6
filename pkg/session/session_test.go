package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gregLibert/thai-id-reader/pkg/cardsim"
	"github.com/gregLibert/thai-id-reader/pkg/thaiid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConnector struct {
	cards map[string]*cardsim.Card
	err   error
}

func (f *fakeConnector) Connect(_ context.Context, reader string) (Card, error) {
	if f.err != nil {
		return nil, f.err
	}
	card, ok := f.cards[reader]
	if !ok {
		return nil, errors.New("no card")
	}
	return card, nil
}

type recordingReporter struct {
	inserted []string
	records  []thaiid.Record
	failures []error
	removed  []string
	states   []State
}

func (r *recordingReporter) Inserted(s *Session) { r.inserted = append(r.inserted, s.Reader) }

func (r *recordingReporter) Report(s *Session, rec thaiid.Record) {
	r.records = append(r.records, rec)
	r.states = append(r.states, s.State)
}

func (r *recordingReporter) Failure(s *Session, err error) {
	r.failures = append(r.failures, err)
	r.states = append(r.states, s.State)
}

func (r *recordingReporter) Removed(reader string) { r.removed = append(r.removed, reader) }

func personalized(t *testing.T) *cardsim.Card {
	t.Helper()
	card := cardsim.New()
	require.NoError(t, card.Personalize(cardsim.Profile{
		CitizenID: "3100600445566",
		NameEN:    "Mrs.#Malee##Sukjai",
		BirthDate: "25300101",
		Gender:    '2',
		Religion:  "พุทธ",
	}))
	return card
}

func TestCardHandler_ReadsAndDisconnects(t *testing.T) {
	card := personalized(t)
	rep := &recordingReporter{}
	h := NewCardHandler(&fakeConnector{cards: map[string]*cardsim.Card{"ACS": card}}, rep, WithPace(0))

	h.CardInserted(context.Background(), "ACS")

	require.Len(t, rep.records, 1)
	assert.Empty(t, rep.failures)
	assert.Equal(t, "3100600445566", rep.records[0].CitizenID)
	assert.Equal(t, "01/01/2530", rep.records[0].BirthDate.String())
	assert.Equal(t, []State{StateOpen}, rep.states)
	assert.True(t, card.Disconnected())
	assert.Equal(t, StateClosed, h.Current().State)
	assert.Equal(t, thaiid.RevisionStandard, h.Current().Revision)
}

func TestCardHandler_AppletFailure(t *testing.T) {
	card := cardsim.New()
	card.RefuseSelect = true
	rep := &recordingReporter{}
	h := NewCardHandler(&fakeConnector{cards: map[string]*cardsim.Card{"ACS": card}}, rep, WithPace(0))

	h.CardInserted(context.Background(), "ACS")

	require.Len(t, rep.failures, 1)
	assert.ErrorIs(t, rep.failures[0], thaiid.ErrAppletNotSelected)
	assert.Empty(t, rep.records)
	assert.Empty(t, card.Reads())
	assert.True(t, card.Disconnected())
}

func TestCardHandler_TransportFault(t *testing.T) {
	card := personalized(t)
	card.FailAt = 4
	rep := &recordingReporter{}
	h := NewCardHandler(&fakeConnector{cards: map[string]*cardsim.Card{"ACS": card}}, rep, WithPace(0))

	h.CardInserted(context.Background(), "ACS")

	require.Len(t, rep.failures, 1)
	assert.ErrorIs(t, rep.failures[0], cardsim.ErrRemoved)
	assert.True(t, card.Disconnected())
}

func TestCardHandler_ConnectFailure(t *testing.T) {
	rep := &recordingReporter{}
	h := NewCardHandler(&fakeConnector{err: errors.New("sharing violation")}, rep)

	h.CardInserted(context.Background(), "ACS")

	require.Len(t, rep.failures, 1)
	assert.Contains(t, rep.failures[0].Error(), "sharing violation")
	assert.Equal(t, StateClosed, h.Current().State)
}

func TestCardHandler_Removal(t *testing.T) {
	rep := &recordingReporter{}
	h := NewCardHandler(&fakeConnector{cards: map[string]*cardsim.Card{"ACS": personalized(t)}}, rep, WithPace(0))

	// No session yet.
	h.CardRemoved(context.Background(), "ACS")
	assert.Empty(t, rep.removed)

	h.CardInserted(context.Background(), "ACS")
	h.CardRemoved(context.Background(), "ACS")
	assert.Equal(t, []string{"ACS"}, rep.removed)
	assert.Nil(t, h.Current())
}

type panicHandler struct {
	inserted []string
}

func (p *panicHandler) CardInserted(_ context.Context, reader string) {
	p.inserted = append(p.inserted, reader)
	if reader == "bad" {
		panic("boom")
	}
}

func (p *panicHandler) CardRemoved(context.Context, string) {}

func TestDriver_Run(t *testing.T) {
	h := &panicHandler{}
	events := make(chan Event, 3)
	events <- Event{Kind: Inserted, Reader: "bad"}
	events <- Event{Kind: Removed, Reader: "bad"}
	events <- Event{Kind: Inserted, Reader: "good"}
	close(events)

	err := NewDriver(h, nil).Run(context.Background(), events)
	require.NoError(t, err)
	assert.Equal(t, []string{"bad", "good"}, h.inserted)
}

func TestDriver_Run_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- NewDriver(&panicHandler{}, nil).Run(ctx, make(chan Event))
	}()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestKindAndState_String(t *testing.T) {
	assert.Equal(t, "inserted", Inserted.String())
	assert.Equal(t, "removed", Removed.String())
	assert.Equal(t, "Kind(9)", Kind(9).String())
	assert.Equal(t, "open", StateOpen.String())
}
