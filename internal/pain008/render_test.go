package pain008

import (
	"encoding/xml"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/sepa-direct-debit/internal/sepa"
)

var (
	batchNow  = time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	renderNow = time.Date(2024, 1, 15, 10, 30, 0, 0, time.FixedZone("CET", 3600))
)

type document struct {
	XMLName    xml.Name `xml:"Document"`
	Initiation struct {
		GroupHeader struct {
			MsgID     string `xml:"MsgId"`
			CreDtTm   string `xml:"CreDtTm"`
			NbOfTxs   string `xml:"NbOfTxs"`
			CtrlSum   string `xml:"CtrlSum"`
			Initiator string `xml:"InitgPty>Nm"`
		} `xml:"GrpHdr"`
		Payment struct {
			PmtInfID     string   `xml:"PmtInfId"`
			PmtMtd       string   `xml:"PmtMtd"`
			NbOfTxs      string   `xml:"NbOfTxs"`
			CtrlSum      string   `xml:"CtrlSum"`
			ServiceLevel string   `xml:"PmtTpInf>SvcLvl>Cd"`
			Instrument   string   `xml:"PmtTpInf>LclInstrm>Cd"`
			SequenceType string   `xml:"PmtTpInf>SeqTp"`
			Collection   string   `xml:"ReqdColltnDt"`
			CreditorName string   `xml:"Cdtr>Nm"`
			CreditorIBAN string   `xml:"CdtrAcct>Id>IBAN"`
			CreditorBIC  string   `xml:"CdtrAgt>FinInstnId>BIC"`
			ChargeBearer string   `xml:"ChrgBr"`
			CreditorID   string   `xml:"CdtrSchmeId>Id>PrvtId>Othr>Id"`
			SchemeName   string   `xml:"CdtrSchmeId>Id>PrvtId>Othr>SchmeNm>Prtry"`
			Transactions []txInfo `xml:"DrctDbtTxInf"`
		} `xml:"PmtInf"`
	} `xml:"CstmrDrctDbtInitn"`
}

type txInfo struct {
	EndToEndID string `xml:"PmtId>EndToEndId"`
	Amount     struct {
		Currency string `xml:"Ccy,attr"`
		Value    string `xml:",chardata"`
	} `xml:"InstdAmt"`
	Mandate struct {
		ID        string  `xml:"MndtId"`
		Signed    string  `xml:"DtOfSgntr"`
		Amendment *string `xml:"AmdmntInd"`
		Details   *struct {
			OriginalMandateID *string `xml:"OrgnlMndtId"`
			Scheme            *struct {
				Name *string `xml:"Nm"`
				ID   *string `xml:"Id>PrvtId>Othr>Id"`
			} `xml:"OrgnlCdtrSchmeId"`
			OriginalAccount *string `xml:"OrgnlDbtrAcct>Id>IBAN"`
			OriginalAgent   *string `xml:"OrgnlDbtrAgt>FinInstnId>Othr>Id"`
		} `xml:"AmdmntInfDtls"`
	} `xml:"DrctDbtTx>MndtRltdInf"`
	DebtorBIC  string `xml:"DbtrAgt>FinInstnId>BIC"`
	DebtorName string `xml:"Dbtr>Nm"`
	DebtorIBAN string `xml:"DbtrAcct>Id>IBAN"`
	Remittance string `xml:"RmtInf>Ustrd"`
}

func transactionInput(e2e, amount string) sepa.TransactionInput {
	return sepa.TransactionInput{
		EndToEndID:     e2e,
		MandateID:      "MANDATE-" + e2e,
		MandateDate:    "2023-06-01",
		DebtorName:     "Max Mustermann",
		DebtorIBAN:     "DE87200500001234567890",
		DebtorBIC:      "HASPDEHHXXX",
		Amount:         amount,
		RemittanceInfo: "Rechnung " + e2e,
	}
}

func scenarioParams() sepa.BatchParams {
	return sepa.BatchParams{
		MessageID:          "MSG-1",
		PaymentID:          "PMT-1",
		CreditorIdentifier: "DE98ZZZ09999999999",
		CreditorName:       "Stadtwerke Musterstadt",
		CreditorIBAN:       "DE89370400440532013000",
		CreditorBIC:        "COBADEFFXXX",
		CollectionDate:     "2024-01-20",
		SequenceType:       sepa.SequenceRecurring,
		Transactions: []sepa.TransactionInput{
			transactionInput("E2E-1", "6543.21"),
			transactionInput("E2E-2", "112.65"),
		},
	}
}

func render(t *testing.T, p sepa.BatchParams) (string, document) {
	t.Helper()

	b, err := sepa.CreateBatch(nil, p, sepa.WithClock(func() time.Time { return batchNow }))
	require.NoError(t, err)

	r := &Renderer{Now: func() time.Time { return renderNow }}
	out, err := r.Render(b)
	require.NoError(t, err)

	var doc document
	require.NoError(t, xml.Unmarshal(out, &doc))

	return string(out), doc
}

func TestRender_Scenario(t *testing.T) {
	out, doc := render(t, scenarioParams())

	assert.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`+"\n"))
	assert.Contains(t, out, `<Document xmlns="urn:iso:std:iso:20022:tech:xsd:pain.008.003.02" `+
		`xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" `+
		`xsi:schemaLocation="urn:iso:std:iso:20022:tech:xsd:pain.008.003.02 pain.008.003.02.xsd">`)
	assert.Equal(t, Namespace, doc.XMLName.Space)

	header := doc.Initiation.GroupHeader
	assert.Equal(t, "MSG-1", header.MsgID)
	assert.Equal(t, "2024-01-15T10:30:00+01:00", header.CreDtTm)
	assert.Equal(t, "2", header.NbOfTxs)
	assert.Empty(t, header.CtrlSum, "the group header carries no control sum")
	assert.Equal(t, "Stadtwerke Musterstadt", header.Initiator)

	payment := doc.Initiation.Payment
	assert.Equal(t, "PMT-1", payment.PmtInfID)
	assert.Equal(t, "DD", payment.PmtMtd)
	assert.Equal(t, "2", payment.NbOfTxs)
	assert.Equal(t, "6655.86", payment.CtrlSum)
	assert.Equal(t, "SEPA", payment.ServiceLevel)
	assert.Equal(t, "CORE", payment.Instrument)
	assert.Equal(t, "RCUR", payment.SequenceType)
	assert.Equal(t, "2024-01-20", payment.Collection)
	assert.Equal(t, "Stadtwerke Musterstadt", payment.CreditorName)
	assert.Equal(t, "DE89370400440532013000", payment.CreditorIBAN)
	assert.Equal(t, "COBADEFFXXX", payment.CreditorBIC)
	assert.Equal(t, "SLEV", payment.ChargeBearer)
	assert.Equal(t, "DE98ZZZ09999999999", payment.CreditorID)
	assert.Equal(t, "SEPA", payment.SchemeName)

	require.Len(t, payment.Transactions, 2)
	first := payment.Transactions[0]
	assert.Equal(t, "E2E-1", first.EndToEndID)
	assert.Equal(t, "EUR", first.Amount.Currency)
	assert.Equal(t, "6543.21", first.Amount.Value)
	assert.Equal(t, "MANDATE-E2E-1", first.Mandate.ID)
	assert.Equal(t, "2023-06-01", first.Mandate.Signed)
	assert.Nil(t, first.Mandate.Amendment)
	assert.Nil(t, first.Mandate.Details)
	assert.Equal(t, "HASPDEHHXXX", first.DebtorBIC)
	assert.Equal(t, "Max Mustermann", first.DebtorName)
	assert.Equal(t, "DE87200500001234567890", first.DebtorIBAN)
	assert.Equal(t, "Rechnung E2E-1", first.Remittance)

	assert.Equal(t, "E2E-2", payment.Transactions[1].EndToEndID)
	assert.NotContains(t, out, "AmdmntInd")
}

func TestRender_ElementOrder(t *testing.T) {
	out, _ := render(t, scenarioParams())

	order := []string{
		"<GrpHdr>", "<MsgId>", "<CreDtTm>", "<NbOfTxs>", "<InitgPty>",
		"<PmtInf>", "<PmtInfId>", "<PmtMtd>", "<PmtTpInf>", "<SvcLvl>", "<LclInstrm>", "<SeqTp>",
		"<ReqdColltnDt>", "<Cdtr>", "<CdtrAcct>", "<CdtrAgt>", "<ChrgBr>", "<CdtrSchmeId>",
		"<DrctDbtTxInf>", "<PmtId>", "<InstdAmt", "<DrctDbtTx>", "<MndtRltdInf>", "<DbtrAgt>",
		"<Dbtr>", "<DbtrAcct>", "<RmtInf>",
	}

	last := -1
	for _, tag := range order {
		idx := strings.Index(out, tag)
		require.NotEqual(t, -1, idx, tag)
		assert.Greater(t, idx, last, tag)
		last = idx
	}
}

func TestRender_GroupHeaderHasNoControlSum(t *testing.T) {
	out, _ := render(t, scenarioParams())

	start := strings.Index(out, "<GrpHdr>")
	end := strings.Index(out, "</GrpHdr>")
	require.True(t, start >= 0 && end > start)

	assert.NotContains(t, out[start:end], "<CtrlSum>")
	assert.Equal(t, 1, strings.Count(out, "<CtrlSum>6655.86</CtrlSum>"))
}

func TestRender_AmendmentGating(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*sepa.BatchParams)
		check  func(*testing.T, txInfo)
	}{
		{
			name: "original mandate id",
			mutate: func(p *sepa.BatchParams) {
				p.Transactions[0].OriginalMandateID = "OLD-1"
			},
			check: func(t *testing.T, tx txInfo) {
				require.NotNil(t, tx.Mandate.Details.OriginalMandateID)
				assert.Equal(t, "OLD-1", *tx.Mandate.Details.OriginalMandateID)
				assert.Nil(t, tx.Mandate.Details.Scheme)
				assert.Nil(t, tx.Mandate.Details.OriginalAccount)
				assert.Nil(t, tx.Mandate.Details.OriginalAgent)
			},
		},
		{
			name: "original creditor id only",
			mutate: func(p *sepa.BatchParams) {
				p.OriginalCreditorID = "DE98ZZZ01111111111"
			},
			check: func(t *testing.T, tx txInfo) {
				require.NotNil(t, tx.Mandate.Details.Scheme)
				assert.Nil(t, tx.Mandate.Details.Scheme.Name)
				require.NotNil(t, tx.Mandate.Details.Scheme.ID)
				assert.Equal(t, "DE98ZZZ01111111111", *tx.Mandate.Details.Scheme.ID)
				assert.Nil(t, tx.Mandate.Details.OriginalMandateID)
			},
		},
		{
			name: "original creditor name only",
			mutate: func(p *sepa.BatchParams) {
				p.OriginalCreditorName = "Alte Stadtwerke"
			},
			check: func(t *testing.T, tx txInfo) {
				require.NotNil(t, tx.Mandate.Details.Scheme)
				require.NotNil(t, tx.Mandate.Details.Scheme.Name)
				assert.Equal(t, "Alte Stadtwerke", *tx.Mandate.Details.Scheme.Name)
				assert.Nil(t, tx.Mandate.Details.Scheme.ID)
			},
		},
		{
			name: "original debtor account",
			mutate: func(p *sepa.BatchParams) {
				p.Transactions[0].OriginalDebtorAccount = "DE21500500009876543210"
			},
			check: func(t *testing.T, tx txInfo) {
				require.NotNil(t, tx.Mandate.Details.OriginalAccount)
				assert.Equal(t, "DE21500500009876543210", *tx.Mandate.Details.OriginalAccount)
				assert.Nil(t, tx.Mandate.Details.OriginalAgent)
			},
		},
		{
			name: "debtor bank changed",
			mutate: func(p *sepa.BatchParams) {
				p.SequenceType = sepa.SequenceFirst
				p.Transactions[0].DebtorBankChanged = true
			},
			check: func(t *testing.T, tx txInfo) {
				require.NotNil(t, tx.Mandate.Details.OriginalAgent)
				assert.Equal(t, "SMNDA", *tx.Mandate.Details.OriginalAgent)
				assert.Nil(t, tx.Mandate.Details.OriginalAccount)
				assert.Nil(t, tx.Mandate.Details.Scheme)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := scenarioParams()
			tt.mutate(&p)

			_, doc := render(t, p)
			tx := doc.Initiation.Payment.Transactions[0]

			require.NotNil(t, tx.Mandate.Amendment)
			assert.Equal(t, "true", *tx.Mandate.Amendment)
			require.NotNil(t, tx.Mandate.Details)
			tt.check(t, tx)
		})
	}
}

func TestRender_AmendmentOnlyOnAffectedTransaction(t *testing.T) {
	p := scenarioParams()
	p.Transactions[1].OriginalMandateID = "OLD-2"

	_, doc := render(t, p)

	assert.Nil(t, doc.Initiation.Payment.Transactions[0].Mandate.Amendment)
	require.NotNil(t, doc.Initiation.Payment.Transactions[1].Mandate.Amendment)
}

func TestRender_CreditorChangeAmendsEveryTransaction(t *testing.T) {
	p := scenarioParams()
	p.OriginalCreditorName = "Alte Stadtwerke"
	p.OriginalCreditorID = "DE98ZZZ01111111111"

	out, doc := render(t, p)

	for _, tx := range doc.Initiation.Payment.Transactions {
		require.NotNil(t, tx.Mandate.Details)
		require.NotNil(t, tx.Mandate.Details.Scheme)
		assert.Equal(t, "Alte Stadtwerke", *tx.Mandate.Details.Scheme.Name)
		assert.Equal(t, "DE98ZZZ01111111111", *tx.Mandate.Details.Scheme.ID)
	}

	nm := strings.Index(out, "<OrgnlCdtrSchmeId>\n                <Nm>")
	assert.NotEqual(t, -1, nm, "Nm comes before Id inside OrgnlCdtrSchmeId")
}

func TestRender_EscapesText(t *testing.T) {
	p := scenarioParams()
	p.CreditorName = "Müller & Söhne"
	p.Transactions[0].DebtorName = "O'Neil"

	out, doc := render(t, p)

	assert.Contains(t, out, "<Nm>Müller &amp; Söhne</Nm>")
	assert.Equal(t, "Müller & Söhne", doc.Initiation.GroupHeader.Initiator)
	assert.Equal(t, "O'Neil", doc.Initiation.Payment.Transactions[0].DebtorName)
}

func TestRender_ChargeBearer(t *testing.T) {
	b, err := sepa.CreateBatch(nil, scenarioParams(), sepa.WithClock(func() time.Time { return batchNow }))
	require.NoError(t, err)

	out, err := (&Renderer{ChargeBearer: sepa.ChargeBearerCreditor}).Render(b)
	require.NoError(t, err)
	assert.Contains(t, string(out), "<ChrgBr>SCOR</ChrgBr>")

	_, err = (&Renderer{ChargeBearer: "SHAR"}).Render(b)
	assert.Error(t, err)
}

func TestRender_RefusesIncompleteBatch(t *testing.T) {
	out, err := Render(sepa.NewBatch(nil))
	assert.Nil(t, out)
	assert.True(t, errors.Is(err, sepa.ErrIncompleteBatch))

	var agg *sepa.AggregateValidationError
	assert.ErrorAs(t, err, &agg)

	out, err = Render(nil)
	assert.Nil(t, out)
	assert.Error(t, err)
}

func TestRender_RefusesEmptyBatch(t *testing.T) {
	p := scenarioParams()
	p.Transactions = nil

	b, err := sepa.CreateBatch(nil, p, sepa.WithClock(func() time.Time { return batchNow }))
	require.NoError(t, err)

	out, err := Render(b)
	assert.Nil(t, out)
	assert.True(t, errors.Is(err, ErrEmptyBatch))
}

func TestRender_Deterministic(t *testing.T) {
	first, _ := render(t, scenarioParams())
	second, _ := render(t, scenarioParams())
	assert.Equal(t, first, second)
}
