package ingestion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billrecon/reconciler/internal/domain"
)

func TestParseBankCSV(t *testing.T) {
	data := []byte(`Transaction_ID,consumer_id,amount,payment_mode,payment_date,status,bank_name
TXN-1,C100,"1,200.00",BANK_COUNTER,2024-03-10,SUCCESS,JK Bank

TXN-2, C200 ,450,BBPS,2024-03-11,FAILED,HDFC
`)

	rows, err := ParseBankCSV(data)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, domain.IntakeRow{
		TransactionID: "TXN-1",
		ConsumerID:    "C100",
		PaymentMode:   "BANK_COUNTER",
		Amount:        "1,200.00",
		PaymentDate:   "2024-03-10",
		Status:        "SUCCESS",
		BankName:      "JK Bank",
	}, rows[0])
	assert.Equal(t, "C200", rows[1].ConsumerID)
	assert.Equal(t, "FAILED", rows[1].Status)
}

func TestParseBankCSV_MissingColumns(t *testing.T) {
	_, err := ParseBankCSV([]byte("transaction_id,consumer_id,amount\nT1,C1,10\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "payment_mode")
	assert.Contains(t, err.Error(), "status")
}

func TestParseBankCSV_ShortRow(t *testing.T) {
	data := []byte("transaction_id,consumer_id,payment_mode,amount,payment_date,status\nT1,C1,BBPS\n")
	_, err := ParseBankCSV(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestParseMPayPipe(t *testing.T) {
	data := []byte(`TXN_ID|CONSUMER_NO|CHANNEL|AMOUNT|TXN_DATE|STATUS
MP-1|C300|APP|640.00|2024-03-10|SUCCESS
MP-2|C301|WEB|75|2024-03-11T10:00:00+05:30|FAILED
`)

	rows, err := ParseMPayPipe(data)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "MP-1", rows[0].TransactionID)
	assert.Equal(t, string(domain.ModeJKBankMPay), rows[0].PaymentMode)
	assert.Equal(t, "JK Bank", rows[0].BankName)
	assert.Equal(t, "2024-03-11T10:00:00+05:30", rows[1].PaymentDate)
}

func TestParseMPayPipe_BadHeader(t *testing.T) {
	_, err := ParseMPayPipe([]byte("TXN_ID|AMOUNT\n"))
	assert.Error(t, err)
}

func TestParseBillingJSON(t *testing.T) {
	data := []byte(`{
  "export_id": "EXP-2024-03",
  "generated_at": "2024-03-31T18:00:00Z",
  "postings": [
    {"transaction_reference": "R1", "consumer_id": "C100", "payment_channel": "BBPS",
     "amount_paid": 1200.5, "posting_date": "2024-03-11", "posting_status": "POSTED", "bill_month": "2024-02"},
    {"transaction_reference": "R2", "consumer_id": "C200", "payment_channel": "SMART_BS",
     "amount_paid": "99.00", "posting_date": "2024-03-12", "posting_status": "POSTED"}
  ]
}`)

	rows, exportID, err := ParseBillingJSON(data)
	require.NoError(t, err)
	assert.Equal(t, "EXP-2024-03", exportID)
	require.Len(t, rows, 2)
	assert.Equal(t, "1200.5", rows[0].AmountPaid)
	assert.Equal(t, "2024-02", rows[0].BillMonth)
	assert.Equal(t, "99.00", rows[1].AmountPaid)
}

func TestParseBillingJSON_Malformed(t *testing.T) {
	_, _, err := ParseBillingJSON([]byte(`{"postings": [`))
	assert.Error(t, err)
}
