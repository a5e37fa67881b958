// =============================================================================
// SEPA Direct Debit - pain.008.003.02 Renderer
// =============================================================================
//
// This module maps a validated sepa.Batch onto the pain.008.003.02 element
// tree and serializes it through the xmlwriter module.
//
// DOCUMENT STRUCTURE:
//
//   <Document xmlns=... xmlns:xsi=... xsi:schemaLocation=...>
//     <CstmrDrctDbtInitn>
//       <GrpHdr>          MsgId, CreDtTm, NbOfTxs, InitgPty/Nm
//       <PmtInf>          PmtInfId, PmtMtd, NbOfTxs, CtrlSum, PmtTpInf,
//                         ReqdColltnDt, Cdtr, CdtrAcct, CdtrAgt, ChrgBr,
//                         CdtrSchmeId
//         <DrctDbtTxInf>  one per transaction, in batch order
//       </PmtInf>
//     </CstmrDrctDbtInitn>
//   </Document>
//
// AMENDMENTS:
//   MndtRltdInf gets AmdmntInd and AmdmntInfDtls only when the transaction
//   reports an amendment. Each AmdmntInfDtls child is emitted on its own:
//
//   OrgnlMndtId       original mandate id is set
//   OrgnlCdtrSchmeId  creditor name or identifier changed
//   OrgnlDbtrAcct     original debtor account is set
//   OrgnlDbtrAgt      debtor changed bank (fixed code SMNDA)
//
// =============================================================================

package pain008

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ginjaninja78/sepa-direct-debit/internal/sepa"
	"github.com/ginjaninja78/sepa-direct-debit/internal/xmlwriter"
)

const (
	// Namespace is the pain.008.003.02 target namespace.
	Namespace = "urn:iso:std:iso:20022:tech:xsd:pain.008.003.02"

	schemaInstance = "http://www.w3.org/2001/XMLSchema-instance"
	schemaLocation = Namespace + " pain.008.003.02.xsd"

	// creationLayout always writes a numeric offset, never "Z".
	creationLayout = "2006-01-02T15:04:05-07:00"

	paymentMethod   = "DD"
	serviceLevel    = "SEPA"
	schemeName      = "SEPA"
	changedBankCode = "SMNDA"
)

// ErrEmptyBatch is returned when a batch without transactions is rendered.
var ErrEmptyBatch = errors.New("batch has no transactions")

// Renderer turns batches into pain.008 documents. The zero value is ready to
// use.
type Renderer struct {
	// Now stamps CreDtTm. Defaults to time.Now.
	Now func() time.Time

	// Indent is the indentation unit. Defaults to two spaces.
	Indent string

	// ChargeBearer defaults to SLEV.
	ChargeBearer sepa.ChargeBearer
}

// Render renders b with a default Renderer.
func Render(b *sepa.Batch) ([]byte, error) {
	return (&Renderer{}).Render(b)
}

// Render checks that b is complete and serializes it. Nothing is returned
// when the check fails.
func (r *Renderer) Render(b *sepa.Batch) ([]byte, error) {
	if b == nil {
		return nil, fmt.Errorf("failed to render batch: %w", ErrEmptyBatch)
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("failed to render batch: %w", err)
	}
	if b.NumberOfTransactions() == 0 {
		return nil, fmt.Errorf("failed to render batch %s: %w", b.MessageID(), ErrEmptyBatch)
	}

	chargeBearer := r.ChargeBearer
	if chargeBearer == "" {
		chargeBearer = sepa.ChargeBearerSharedLevel
	}
	if !chargeBearer.Valid() {
		return nil, fmt.Errorf("failed to render batch: invalid charge bearer %q", chargeBearer)
	}

	now := time.Now
	if r.Now != nil {
		now = r.Now
	}

	options := xmlwriter.DefaultGenerateOptions()
	if r.Indent != "" {
		options.Indent = r.Indent
	}

	doc := buildDocument(b, now(), chargeBearer)

	out, err := xmlwriter.GenerateWithOptions(doc, options)
	if err != nil {
		return nil, fmt.Errorf("failed to render batch %s: %w", b.MessageID(), err)
	}

	return out, nil
}

// =============================================================================
// DOCUMENT BUILDING
// =============================================================================

func buildDocument(b *sepa.Batch, created time.Time, chargeBearer sepa.ChargeBearer) *xmlwriter.XMLElement {
	initiation := xmlwriter.NewElement("CstmrDrctDbtInitn",
		buildGroupHeader(b, created),
		buildPaymentInfo(b, chargeBearer),
	)

	return xmlwriter.NewElement("Document", initiation).
		WithAttr("xmlns", Namespace).
		WithAttr("xmlns:xsi", schemaInstance).
		WithAttr("xsi:schemaLocation", schemaLocation)
}

func buildGroupHeader(b *sepa.Batch, created time.Time) *xmlwriter.XMLElement {
	return xmlwriter.NewElement("GrpHdr",
		xmlwriter.SimpleElement("MsgId", b.MessageID()),
		xmlwriter.SimpleElement("CreDtTm", created.Format(creationLayout)),
		xmlwriter.SimpleElement("NbOfTxs", strconv.Itoa(b.NumberOfTransactions())),
		xmlwriter.NewElement("InitgPty", xmlwriter.SimpleElement("Nm", b.InitiatorName())),
	)
}

func buildPaymentInfo(b *sepa.Batch, chargeBearer sepa.ChargeBearer) *xmlwriter.XMLElement {
	paymentType := xmlwriter.NewElement("PmtTpInf",
		xmlwriter.Path(xmlwriter.SimpleElement("Cd", serviceLevel), "SvcLvl"),
		xmlwriter.Path(xmlwriter.SimpleElement("Cd", b.LocalInstrument().String()), "LclInstrm"),
		xmlwriter.SimpleElement("SeqTp", b.SequenceType().String()),
	)

	info := xmlwriter.NewElement("PmtInf",
		xmlwriter.SimpleElement("PmtInfId", b.PaymentID()),
		xmlwriter.SimpleElement("PmtMtd", paymentMethod),
		xmlwriter.SimpleElement("NbOfTxs", strconv.Itoa(b.NumberOfTransactions())),
		xmlwriter.SimpleElement("CtrlSum", b.ControlSum().StringFixed(2)),
		paymentType,
		xmlwriter.SimpleElement("ReqdColltnDt", b.CollectionDate()),
		xmlwriter.NewElement("Cdtr", xmlwriter.SimpleElement("Nm", b.InitiatorName())),
		xmlwriter.Path(xmlwriter.SimpleElement("IBAN", b.CreditorIBAN()), "CdtrAcct", "Id"),
		xmlwriter.Path(xmlwriter.SimpleElement("BIC", b.CreditorBIC()), "CdtrAgt", "FinInstnId"),
		xmlwriter.SimpleElement("ChrgBr", string(chargeBearer)),
		xmlwriter.NewElement("CdtrSchmeId", schemeIdentification(b.CreditorIdentifier())),
	)

	for _, tx := range b.Transactions() {
		info.Append(buildTransaction(b, tx))
	}

	return info
}

func buildTransaction(b *sepa.Batch, tx *sepa.Transaction) *xmlwriter.XMLElement {
	mandate := xmlwriter.NewElement("MndtRltdInf",
		xmlwriter.SimpleElement("MndtId", tx.MandateID()),
		xmlwriter.SimpleElement("DtOfSgntr", tx.MandateDate()),
	)

	if tx.AmendmentIndicator() {
		mandate.Append(
			xmlwriter.SimpleElement("AmdmntInd", "true"),
			buildAmendmentDetails(b, tx),
		)
	}

	return xmlwriter.NewElement("DrctDbtTxInf",
		xmlwriter.Path(xmlwriter.SimpleElement("EndToEndId", tx.EndToEndID()), "PmtId"),
		xmlwriter.SimpleElement("InstdAmt", tx.Amount()).WithAttr("Ccy", tx.Currency()),
		xmlwriter.NewElement("DrctDbtTx", mandate),
		xmlwriter.Path(xmlwriter.SimpleElement("BIC", tx.DebtorBIC()), "DbtrAgt", "FinInstnId"),
		xmlwriter.NewElement("Dbtr", xmlwriter.SimpleElement("Nm", tx.DebtorName())),
		xmlwriter.Path(xmlwriter.SimpleElement("IBAN", tx.DebtorIBAN()), "DbtrAcct", "Id"),
		xmlwriter.NewElement("RmtInf", xmlwriter.SimpleElement("Ustrd", tx.RemittanceInfo())),
	)
}

func buildAmendmentDetails(b *sepa.Batch, tx *sepa.Transaction) *xmlwriter.XMLElement {
	details := xmlwriter.NewElement("AmdmntInfDtls")

	if id, ok := tx.OriginalMandateID(); ok {
		details.Append(xmlwriter.SimpleElement("OrgnlMndtId", id))
	}

	if b.CreditorIdentityChanged() {
		scheme := xmlwriter.NewElement("OrgnlCdtrSchmeId")
		if name, ok := b.OriginalCreditorName(); ok {
			scheme.Append(xmlwriter.SimpleElement("Nm", name))
		}
		if id, ok := b.OriginalCreditorID(); ok {
			scheme.Append(schemeIdentification(id))
		}
		details.Append(scheme)
	}

	if iban, ok := tx.OriginalDebtorAccount(); ok {
		details.Append(xmlwriter.Path(xmlwriter.SimpleElement("IBAN", iban), "OrgnlDbtrAcct", "Id"))
	}

	if tx.DebtorBankChanged() {
		details.Append(xmlwriter.Path(xmlwriter.SimpleElement("Id", changedBankCode), "OrgnlDbtrAgt", "FinInstnId", "Othr"))
	}

	return details
}

// schemeIdentification builds Id/PrvtId/Othr/{Id, SchmeNm/Prtry} for a
// creditor identifier.
func schemeIdentification(ci string) *xmlwriter.XMLElement {
	other := xmlwriter.NewElement("Othr",
		xmlwriter.SimpleElement("Id", ci),
		xmlwriter.Path(xmlwriter.SimpleElement("Prtry", schemeName), "SchmeNm"),
	)
	return xmlwriter.Path(other, "Id", "PrvtId")
}
