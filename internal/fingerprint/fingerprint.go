// Package fingerprint derives deterministic cache keys for report generation.
//
// The hashed field list is explicit and reviewable: birth data, report kind,
// and the content-affecting subset of the generation config. Delivery-only
// flags (persist, include-PDF, force-regenerate) are deliberately excluded so
// they never fragment the cache.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/astralhq/astral/internal/model"
)

// Compute returns a stable 32-hex-character identifier for the generation
// inputs. Equal inputs under the same kind always yield the same fingerprint;
// any change to the subject, partner, kind or content-affecting config
// changes it. Pure function, stable across process restarts.
func Compute(subject model.BirthSubject, partner *model.BirthSubject, kind model.ReportKind, cfg model.GenerationConfig) string {
	var b strings.Builder

	writeSubject(&b, subject)
	if partner != nil {
		b.WriteString("|partner:")
		writeSubject(&b, *partner)
	}

	fmt.Fprintf(&b, "|kind:%s", kind)
	fmt.Fprintf(&b, "|detail:%s", cfg.DetailLevel)
	fmt.Fprintf(&b, "|charts:%t", cfg.IncludeCharts)
	fmt.Fprintf(&b, "|theme:%s", cfg.Theme)
	fmt.Fprintf(&b, "|format:%s", cfg.Format)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:16])
}

func writeSubject(b *strings.Builder, s model.BirthSubject) {
	fmt.Fprintf(b, "date:%s|time:%s|lat:%.6f|lon:%.6f|tz:%s",
		s.Date, s.Time, s.Location.Latitude, s.Location.Longitude, s.Location.Timezone)
}
