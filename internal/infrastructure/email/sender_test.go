package email

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minimarket/internal/domain/receipts"
)

func testSender() *Sender {
	return NewSender(Config{
		Host:      "localhost",
		Port:      587,
		FromName:  "Minimarket Camucha",
		FromEmail: "ventas@camucha.pe",
	})
}

func TestSendReceiptEmail_EmptyAddress(t *testing.T) {
	sent, err := testSender().SendReceiptEmail(context.Background(), "", "Rosa", "Su comprobante", "B001-00000001", receipts.Document{})
	require.NoError(t, err)
	assert.False(t, sent)
}

func TestBuildMessage(t *testing.T) {
	doc := receipts.Document{
		Name:        "B001-00000042.html",
		ContentType: "text/html; charset=utf-8",
		Data:        []byte("<html><body>comprobante</body></html>"),
	}

	m := testSender().buildMessage("rosa@mail.pe", "Rosa Quispe", "Su comprobante B001-00000042", "B001-00000042", doc)

	var buf bytes.Buffer
	_, err := m.WriteTo(&buf)
	require.NoError(t, err)
	raw := buf.String()

	assert.Contains(t, raw, "To: rosa@mail.pe")
	assert.Contains(t, raw, "Su comprobante B001-00000042")
	assert.Contains(t, raw, "ventas@camucha.pe")
	// The document rides along as a named attachment.
	assert.Contains(t, raw, "B001-00000042.html")
	assert.Contains(t, raw, "Rosa Quispe")
}
