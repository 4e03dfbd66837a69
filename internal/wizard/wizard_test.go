package wizard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicer/internal/session"
	"invoicer/pkg/models"
)

var today = time.Date(2025, time.March, 14, 0, 0, 0, 0, time.UTC)

func completeSnapshot() *models.Snapshot {
	s := models.NewSnapshot(today)
	s.Profile.Region = models.RegionUK
	s.Profile.LegalName = "Acme Studio Ltd"
	s.Profile.Email = "hello@acme.test"
	s.Profile.AddressLines = []string{"1 Road"}
	s.Client.CompanyName = "Bloggs & Sons"
	s.Client.AddressLines = []string{"9 High Street"}
	s.Invoice.Number = "INV-0042"
	s.Invoice.TermsDays = models.IntPtr(30)
	s.Invoice.TaxRate = decimal.NewFromInt(20)
	s.Items = []models.LineItem{{Basis: models.BasisPerJob, Description: "Logo", Quantity: decimal.NewFromInt(1), Rate: decimal.NewFromInt(300)}}
	s.Payments.AcceptWise = true
	return s
}

func TestValidateProfile(t *testing.T) {
	s := models.NewSnapshot(today)
	err := Validate(StepProfile, s)
	require.Error(t, err)
	assert.ElementsMatch(t, []string{"profile.region", "profile.legal_name", "profile.email", "profile.address_lines"}, Fields(err))

	s.Profile.TradingName = "Acme"
	s.Profile.Region = models.RegionUS
	s.Profile.Email = "a@b.test"
	s.Profile.AddressLines = []string{"", "  ", "Suite 5"}
	assert.NoError(t, Validate(StepProfile, s))
}

func TestValidateClient(t *testing.T) {
	s := models.NewSnapshot(today)
	assert.ElementsMatch(t, []string{"client.name", "client.address_lines"}, Fields(Validate(StepClient, s)))

	s.Client.ContactName = "Jo"
	s.Client.AddressLines = []string{"Town"}
	assert.NoError(t, Validate(StepClient, s))
}

func TestValidateItems(t *testing.T) {
	s := completeSnapshot()
	assert.NoError(t, Validate(StepItems, s))

	s.Invoice.Number = " "
	s.Invoice.TermsDays = nil
	s.Invoice.TaxRate = decimal.NewFromInt(101)
	s.Items = []models.LineItem{{Quantity: decimal.NewFromInt(-1), Rate: decimal.NewFromInt(-5)}}
	assert.ElementsMatch(t,
		[]string{"invoice.number", "invoice.terms_days", "invoice.tax_rate", "items[0].qty", "items[0].rate"},
		Fields(Validate(StepItems, s)))

	s = completeSnapshot()
	s.Invoice.TermsDays = models.IntPtr(-1)
	s.Items = nil
	assert.ElementsMatch(t, []string{"invoice.terms_days", "items"}, Fields(Validate(StepItems, s)))

	s = completeSnapshot()
	s.Invoice.TaxRate = decimal.NewFromInt(100)
	s.Invoice.TermsDays = models.IntPtr(0)
	assert.NoError(t, Validate(StepItems, s))
}

func TestValidatePayment(t *testing.T) {
	s := models.NewSnapshot(today)
	assert.Equal(t, []string{"payments"}, Fields(Validate(StepPayment, s)))

	s.Payments.FooterNotes = "Cash only"
	assert.NoError(t, Validate(StepPayment, s))
}

func TestValidateAll(t *testing.T) {
	assert.NoError(t, ValidateAll(completeSnapshot()))

	s := completeSnapshot()
	s.Profile.Email = ""
	s.Payments.AcceptWise = false
	err := ValidateAll(s)
	assert.ElementsMatch(t, []string{"profile.email", "payments"}, Fields(err))
	assert.Contains(t, err.Error(), "profile: Email is required.")
}

func TestErrorsFlattensJoinedValidation(t *testing.T) {
	s := completeSnapshot()
	s.Client.ContactName = ""
	s.Client.CompanyName = ""
	s.Items = nil

	errs := Errors(ValidateAll(s))
	require.Len(t, errs, 2)
	assert.Equal(t, StepClient, errs[0].Step)
	assert.Equal(t, "client.name", errs[0].Field)
	assert.Equal(t, StepItems, errs[1].Step)
	assert.Equal(t, "Add at least one line item.", errs[1].Message)

	assert.Empty(t, Errors(nil))
}

func TestWizardNextValidatesAndPersists(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()

	w, err := Start(ctx, store, "k1", today)
	require.NoError(t, err)
	assert.Equal(t, StepUpload, w.Step())

	require.NoError(t, w.Next(ctx))
	assert.Equal(t, StepProfile, w.Step())

	err = w.Next(ctx)
	require.Error(t, err)
	assert.Equal(t, StepProfile, w.Step())

	snap := w.Snapshot()
	snap.Profile.LegalName = "Acme"
	snap.Profile.Email = "a@acme.test"
	snap.Profile.AddressLines = []string{"1 Road"}
	w.SetRegion(models.RegionUK)
	require.NoError(t, w.Next(ctx))
	assert.Equal(t, StepClient, w.Step())

	resumed, err := Start(ctx, store, "k1", today.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, StepClient, resumed.Step())
	assert.Equal(t, "Acme", resumed.Snapshot().Profile.LegalName)
	assert.True(t, today.Equal(resumed.Snapshot().Invoice.Date))
}

func TestWizardBackAndGoTo(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	w, err := Start(ctx, store, "k2", today)
	require.NoError(t, err)

	require.NoError(t, w.Back(ctx))
	assert.Equal(t, StepUpload, w.Step())

	err = w.GoTo(ctx, StepItems)
	require.Error(t, err)
	assert.Equal(t, StepUpload, w.Step())

	w.state.Snapshot = completeSnapshot()
	require.NoError(t, w.GoTo(ctx, StepPreview))
	assert.Equal(t, StepPreview, w.Step())
	require.NoError(t, w.Next(ctx))
	assert.Equal(t, StepPreview, w.Step())

	w.Snapshot().Profile.Email = ""
	require.NoError(t, w.GoTo(ctx, StepClient))
	assert.Equal(t, StepClient, w.Step())
	require.NoError(t, w.Back(ctx))
	assert.Equal(t, StepProfile, w.Step())

	assert.ErrorIs(t, w.GoTo(ctx, Step(9)), ErrInvalidStep)
}

func TestWizardPrefill(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	w, err := Start(ctx, store, "k3", today)
	require.NoError(t, err)

	decoded := completeSnapshot()
	decoded.Invoice.Number = "INV-0043"
	decoded.Client.AddressLines = nil
	require.NoError(t, w.Prefill(ctx, decoded))

	assert.Equal(t, StepProfile, w.Step())
	assert.Equal(t, "INV-0043", w.Snapshot().Invoice.Number)
	assert.Equal(t, []string{""}, w.Snapshot().Client.AddressLines)
	assert.NotSame(t, decoded, w.Snapshot())

	stored, err := store.Get(ctx, "k3")
	require.NoError(t, err)
	assert.Equal(t, int(StepProfile), stored.Step)
	assert.Equal(t, "INV-0043", stored.Snapshot.Invoice.Number)

	assert.Error(t, w.Prefill(ctx, nil))
}

func TestWizardSetRegionClearsIdentifier(t *testing.T) {
	w, err := Start(context.Background(), session.NewMemoryStore(), "k4", today)
	require.NoError(t, err)
	w.Snapshot().Profile.VATNumber = "GB1"
	w.Snapshot().Profile.TaxID = "12-3"

	w.SetRegion(models.RegionUS)
	assert.Empty(t, w.Snapshot().Profile.VATNumber)
	assert.Equal(t, "12-3", w.Snapshot().Profile.TaxID)
}

func TestWizardItems(t *testing.T) {
	w, err := Start(context.Background(), session.NewMemoryStore(), "k5", today)
	require.NoError(t, err)

	w.AddItem(models.LineItem{Description: "a"})
	w.AddItem(models.LineItem{Description: "b"})
	w.AddItem(models.LineItem{Description: "c"})
	require.NoError(t, w.RemoveItem(1))

	require.Len(t, w.Snapshot().Items, 2)
	assert.Equal(t, "a", w.Snapshot().Items[0].Description)
	assert.Equal(t, "c", w.Snapshot().Items[1].Description)

	assert.ErrorIs(t, w.RemoveItem(5), ErrNoItem)
	assert.ErrorIs(t, w.RemoveItem(-1), ErrNoItem)
}

func TestStepString(t *testing.T) {
	assert.Equal(t, "items", StepItems.String())
	assert.Equal(t, "step(7)", Step(7).String())
}

func TestWizardReplaceKeepsStep(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	w, err := Start(ctx, store, "replace", today)
	require.NoError(t, err)
	require.NoError(t, w.GoTo(ctx, StepProfile))

	edited := completeSnapshot()
	require.NoError(t, w.Replace(ctx, edited))
	edited.Profile.LegalName = "changed after replace"

	assert.Equal(t, StepProfile, w.Step())
	state, err := store.Get(ctx, "replace")
	require.NoError(t, err)
	assert.Equal(t, "Acme Studio Ltd", state.Snapshot.Profile.LegalName)

	assert.ErrorIs(t, w.Replace(ctx, nil), session.ErrNoSnapshot)
}

var errStoreDown = errors.New("store unavailable")

// brokenStore lets okPuts writes through, then fails every write.
type brokenStore struct {
	*session.MemoryStore
	okPuts int
}

func (b *brokenStore) Put(ctx context.Context, state *session.State) error {
	if b.okPuts <= 0 {
		return errStoreDown
	}
	b.okPuts--
	return b.MemoryStore.Put(ctx, state)
}

func TestWizardPrefillRollsBackOnSaveFailure(t *testing.T) {
	ctx := context.Background()
	store := &brokenStore{MemoryStore: session.NewMemoryStore()}
	w, err := Start(ctx, store, "broken", today)
	require.NoError(t, err)
	before := w.Snapshot()

	err = w.Prefill(ctx, completeSnapshot())
	require.ErrorIs(t, err, errStoreDown)

	assert.Equal(t, StepUpload, w.Step())
	assert.Same(t, before, w.Snapshot())
	assert.Empty(t, w.Snapshot().Invoice.Number)
}
