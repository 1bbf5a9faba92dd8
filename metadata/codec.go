package metadata

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"unicode/utf8"

	"github.com/anjiri1684/peer_certify/models"
	"github.com/pkg/errors"
)

// NoteLimit is the Algorand transaction note size limit in bytes. Payloads
// longer than this are truncated best-effort; the dropped byte count is
// reported so callers can warn instead of losing data silently.
const NoteLimit = 1000

// ErrParse marks note bytes that cannot be decoded into certificate
// metadata. Callers must treat it as recoverable and fall back to
// asset-level reconstruction.
var ErrParse = errors.New("note payload is not valid certificate metadata")

// NoteFields is the wire shape of the on-chain note. Field order is the
// canonical JSON order, so truncation drops trailing fields first.
type NoteFields struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Student         string   `json:"student"`
	Course          string   `json:"course"`
	Issuer          string   `json:"issuer"`
	CompletionDate  string   `json:"completionDate"`
	IssueDate       string   `json:"issueDate"`
	Skills          []string `json:"skills"`
	Duration        string   `json:"duration"`
	Grade           string   `json:"grade,omitempty"`
	CertificateID   string   `json:"certificateId"`
	CertificateHash string   `json:"certificateHash"`
}

// Encoded is the result of encoding one certificate.
type Encoded struct {
	CanonicalJSON  []byte
	NotePayload    []byte
	ContentHash    []byte // sha256 over CanonicalJSON
	TruncatedBytes int
}

// Encode canonicalizes a certificate into its on-chain metadata form. The
// content hash covers the full canonical JSON even when the note payload had
// to be truncated to NoteLimit bytes.
func Encode(cert *models.Certificate) (Encoded, error) {
	fields := NoteFields{
		Name:            "Certificate: " + cert.CourseName,
		Description:     cert.Metadata.Description,
		Student:         cert.StudentName,
		Course:          cert.CourseName,
		Issuer:          cert.IssuerName,
		CompletionDate:  cert.CompletionDate,
		IssueDate:       cert.Metadata.IssueDate,
		Skills:          cert.Metadata.Skills,
		Duration:        cert.Metadata.Duration,
		Grade:           cert.Metadata.Grade,
		CertificateID:   cert.ID,
		CertificateHash: cert.CertificateHash,
	}
	if fields.Skills == nil {
		fields.Skills = []string{}
	}

	canonical, err := json.Marshal(fields)
	if err != nil {
		return Encoded{}, errors.Wrap(err, "failed to canonicalize certificate metadata")
	}

	hash := sha256.Sum256(canonical)

	note := canonical
	truncated := 0
	if len(note) > NoteLimit {
		note = truncateUTF8(note, NoteLimit)
		truncated = len(canonical) - len(note)
	}

	return Encoded{
		CanonicalJSON:  canonical,
		NotePayload:    note,
		ContentHash:    hash[:],
		TruncatedBytes: truncated,
	}, nil
}

// ContentFingerprint derives the certificate hash recorded at creation time
// from the descriptive fields alone.
func ContentFingerprint(cert *models.Certificate) string {
	h := sha256.New()
	h.Write([]byte(cert.StudentName))
	h.Write([]byte{0})
	h.Write([]byte(cert.CourseName))
	h.Write([]byte{0})
	h.Write([]byte(cert.IssuerName))
	h.Write([]byte{0})
	h.Write([]byte(cert.CompletionDate))
	return "sha256_" + hex.EncodeToString(h.Sum(nil))
}

// Decode parses note bytes back into certificate fields. Truncated notes are
// repaired best-effort so that complete leading fields survive; bytes that
// cannot be repaired into JSON at all return ErrParse.
func Decode(note []byte) (*NoteFields, error) {
	if len(note) == 0 {
		return nil, errors.Wrap(ErrParse, "empty note")
	}
	if !utf8.Valid(note) {
		return nil, errors.Wrap(ErrParse, "note is not valid UTF-8")
	}

	var fields NoteFields
	if err := json.Unmarshal(note, &fields); err != nil {
		repaired, ok := repairTruncated(note)
		if !ok {
			return nil, errors.Wrap(ErrParse, err.Error())
		}
		fields = *repaired
	}

	if fields.CertificateID == "" && fields.Student == "" && fields.Course == "" {
		return nil, errors.Wrap(ErrParse, "note carries no certificate fields")
	}
	return &fields, nil
}

// repairTruncated recovers the complete leading values of a note that was
// cut mid-value by the NoteLimit. The payload is trimmed back to the
// previous value boundary before closing delimiters are tried, so a
// partially cut value is dropped whole rather than kept corrupted.
func repairTruncated(note []byte) (*NoteFields, bool) {
	work := note
	for {
		cut := bytes.LastIndex(work, []byte(`,"`))
		if cut <= 0 {
			return nil, false
		}
		work = work[:cut]

		for _, closer := range []string{"}", "]}"} {
			candidate := append(append([]byte{}, work...), closer...)
			var fields NoteFields
			if err := json.Unmarshal(candidate, &fields); err == nil {
				return &fields, true
			}
		}
	}
}

func truncateUTF8(b []byte, limit int) []byte {
	if len(b) <= limit {
		return b
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(b[cut]) {
		cut--
	}
	return b[:cut]
}
