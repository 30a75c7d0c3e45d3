// Package domain models road-accident records from the PRF (Polícia
// Rodoviária Federal) open-data program.
//
// # Data Source
//
// Accident records originate from the PRF yearly "acidentes" CSV exports. The
// upstream collector publishes each row as flat JSON to the Kafka source
// topic, one message per accident. Coverage is restricted to the four
// Sudeste-region states: SP, MG, ES and RJ.
//
// # PRF Data Conventions
//
// Numeric formatting:
//
//	Brazilian exports use the comma as decimal separator and the dot as a
//	thousands mark: "12,5" means 12.5 and "1.234,56" means 1234.56. Some
//	re-exports are already dot-normalized. [ParseDecimal] accepts both.
//
// Highway identifiers:
//
//	The "br" column holds the federal highway number, sometimes as an
//	integer ("101"), sometimes as a float artifact ("101.0"), sometimes
//	already prefixed ("BR-101"). [CanonicalHighway] normalizes all of these
//	to "BR-NNN".
//
// Kilometer markers:
//
//	The "km" column is the linear marker along the highway within the state,
//	non-negative, comma-formatted. A highway restarts its km count at each
//	state border, which is why segmentation partitions by (uf, highway).
//
// Casualties:
//
//	"feridos" (injured) and "mortos" (killed) are small non-negative
//	integers. When no explicit "peso" weight column is present the event
//	weight defaults to 1 + feridos + mortos, so weighted density emphasises
//	severe locations the way the original heatmaps did.
//
// # ID Generation
//
// Event IDs are deterministic SHA-256 hashes of the record's key fields.
// Replaying a topic therefore dedupes in the event store instead of inflating
// segment counts. See [NormalizeRecord].
package domain
