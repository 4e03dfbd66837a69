package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicer/internal/codec"
	"invoicer/internal/session"
	"invoicer/internal/wizard"
	"invoicer/pkg/models"
)

// prefillEnv points the session store at a temporary sqlite database and
// returns its path.
func prefillEnv(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "sessions.db")
	t.Setenv("SESSION_BACKEND", session.BackendSQLite)
	t.Setenv("SESSION_DB_PATH", dbPath)
	t.Setenv("TEXT_EXTRACTOR", "pdf")
	return dbPath
}

func runPrefillCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(append([]string{"prefill", "--text=false", "--export="}, args...))
	defer rootCmd.SetOut(nil)
	err := rootCmd.Execute()
	return out.String(), err
}

func loadState(t *testing.T, dbPath, key string) *session.State {
	t.Helper()
	store, err := session.OpenSQLite(context.Background(), dbPath)
	require.NoError(t, err)
	defer store.Close()
	state, err := store.Get(context.Background(), key)
	require.NoError(t, err)
	require.NotNil(t, state)
	return state
}

func TestPrefillScannedPDFStartsBlankSession(t *testing.T) {
	dbPath := prefillEnv(t)

	doc := gofpdf.New("P", "mm", "A4", "")
	doc.AddPage()
	doc.SetFillColor(40, 40, 40)
	doc.Rect(20, 20, 120, 80, "F")
	scan := filepath.Join(t.TempDir(), "scan.pdf")
	require.NoError(t, doc.OutputFileAndClose(scan))

	out, err := runPrefillCommand(t, "--session", "scan-1", scan)
	require.NoError(t, err)
	assert.Contains(t, out, "starting from a blank invoice")
	assert.Contains(t, out, "Session scan-1 at step profile")

	state := loadState(t, dbPath, "scan-1")
	assert.Equal(t, int(wizard.StepProfile), state.Step)
	assert.Empty(t, state.Snapshot.Invoice.Number)
}

func TestPrefillWithoutPayloadKeepsResumedSession(t *testing.T) {
	dbPath := prefillEnv(t)

	store, err := session.OpenSQLite(context.Background(), dbPath)
	require.NoError(t, err)
	snap := models.NewSnapshot(time.Date(2025, time.March, 14, 0, 0, 0, 0, time.UTC))
	snap.Invoice.Number = "INV-0007"
	require.NoError(t, store.Put(context.Background(), &session.State{Key: "resume", Step: int(wizard.StepItems), Snapshot: snap}))
	require.NoError(t, store.Close())

	notes := writeFile(t, "notes.txt", "Meeting notes, nothing to see here")
	out, err := runPrefillCommand(t, "--session", "resume", notes)
	require.NoError(t, err)
	assert.Contains(t, out, "No invoice data found")
	assert.Contains(t, out, "Session resume at step items")

	state := loadState(t, dbPath, "resume")
	assert.Equal(t, int(wizard.StepItems), state.Step)
	assert.Equal(t, "INV-0007", state.Snapshot.Invoice.Number)
}

func TestPrefillUnreadableDocumentStartsBlankSession(t *testing.T) {
	dbPath := prefillEnv(t)

	broken := writeFile(t, "broken.pdf", "%PDF-1.4 this is not really a PDF")
	out, err := runPrefillCommand(t, "--session", "broken-1", broken)
	require.NoError(t, err)
	assert.Contains(t, out, "Could not read broken.pdf")

	state := loadState(t, dbPath, "broken-1")
	assert.Equal(t, int(wizard.StepProfile), state.Step)
}

func TestPrefillFromPayloadText(t *testing.T) {
	dbPath := prefillEnv(t)

	prior := models.NewSnapshot(time.Date(2025, time.March, 14, 0, 0, 0, 0, time.UTC))
	prior.Profile.LegalName = "Acme Studio Ltd"
	prior.Invoice.Number = "INV-0041"
	text := writeFile(t, "prior.txt", "Invoice\n"+codec.EncodeLine(prior))

	out, err := runPrefillCommand(t, "--session", "from-text", text)
	require.NoError(t, err)
	assert.Contains(t, out, "next invoice number is INV-0042")

	state := loadState(t, dbPath, "from-text")
	assert.Equal(t, int(wizard.StepProfile), state.Step)
	assert.Equal(t, "Acme Studio Ltd", state.Snapshot.Profile.LegalName)
	assert.Equal(t, "INV-0042", state.Snapshot.Invoice.Number)
}
