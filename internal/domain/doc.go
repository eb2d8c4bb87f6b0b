// Package domain models risk assessment for registered users in Nigerian
// Local Government Areas (LGAs).
//
// # Data Sources
//
// LGA coordinates come from the community nigeria-geojson-data set, a bulk
// JSON document of states → LGAs → wards published on GitHub Pages. The
// resolver matches LGA names case-insensitively and takes the first ward's
// coordinates as the LGA approximation, falling back to LGA-level
// coordinates when no wards are listed. A small embedded table covers the
// LGAs we absolutely must be able to reach when the remote dataset is down.
//
// Rainfall comes from the Open-Meteo forecast API, requested with one day of
// hourly history and reduced to a trailing 24-hour total in millimetres.
// Open-Meteo reports naive local timestamps unless a timezone is forced, so
// all requests pin timezone=UTC and all cutoff comparisons happen in UTC.
//
// # Risk Classification
//
// Risk is a pure function of two inputs:
//
//   - the static disease-hotspot registry: LGAs with known endemic outbreaks
//     (Lassa fever in the north, cholera around Maiduguri, malaria in
//     Sokoto) contribute their disease factors;
//   - the trailing 24h rainfall total: at or above the flood threshold
//     (20 mm by default) the heavy-rain factor is added.
//
// Both rules are always evaluated so factors can co-occur. The level is HIGH
// exactly when at least one factor is present, otherwise LOW.
//
// # Advisory Conventions
//
// Advisory scripts are short (under ~60 words) Nigerian Pidgin messages that
// greet the user by name, name the LGA and its risks, give factor-specific
// guidance (cover food and keep rats away for Lassa fever; mosquito nets and
// clearing stagnant water for malaria or heavy rain), and close with a
// wellness question. Scripts never contain double-quote characters; they are
// read out by a TTS engine and quotes confuse the voice markup.
package domain
