// Package canonical defines the canonical byte encoding of a certificate
// payload and the SHA-256 content hash over it.
//
// The encoding must be byte-identical for identical field values regardless
// of caller or locale, because the hash is recomputed at verification time,
// possibly by a different service years later. The rules are frozen:
//
//   - fields appear in the fixed order listed on Payload, one per line,
//     as "name=value" joined with "\n", UTF-8
//   - dates are formatted as UTC "2006-01-02"
//   - cgpa is formatted with exactly two decimals; absent optional fields
//     encode as an empty value, keeping the line present
//
// Changing any rule invalidates every previously issued hash. Do not.
package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Payload holds the hashed certificate fields. Everything on this struct is
// immutable after issuance; status and revocation metadata are deliberately
// excluded so revoking never disturbs the hash.
type Payload struct {
	CertificateNumber string
	StudentID         string
	StudentName       string
	StudentEmail      string
	UniversityID      string
	CourseName        string
	Specialization    string
	Grade             string
	CGPA              *float64
	IssueDate         time.Time
	CompletionDate    *time.Time
}

// Serialize returns the canonical byte encoding of the payload.
func Serialize(p Payload) []byte {
	var b strings.Builder

	writeField(&b, "certificateNumber", p.CertificateNumber)
	writeField(&b, "studentId", p.StudentID)
	writeField(&b, "studentName", p.StudentName)
	writeField(&b, "studentEmail", p.StudentEmail)
	writeField(&b, "universityId", p.UniversityID)
	writeField(&b, "courseName", p.CourseName)
	writeField(&b, "specialization", p.Specialization)
	writeField(&b, "grade", p.Grade)

	cgpa := ""
	if p.CGPA != nil {
		cgpa = strconv.FormatFloat(*p.CGPA, 'f', 2, 64)
	}
	writeField(&b, "cgpa", cgpa)

	writeField(&b, "issueDate", p.IssueDate.UTC().Format(dateLayout))

	completion := ""
	if p.CompletionDate != nil {
		completion = p.CompletionDate.UTC().Format(dateLayout)
	}
	b.WriteString("completionDate=" + completion)

	return []byte(b.String())
}

// Hash returns the lowercase hex SHA-256 digest of the canonical encoding.
func Hash(p Payload) string {
	sum := sha256.Sum256(Serialize(p))
	return hex.EncodeToString(sum[:])
}

func writeField(b *strings.Builder, name, value string) {
	b.WriteString(name)
	b.WriteByte('=')
	b.WriteString(value)
	b.WriteByte('\n')
}
