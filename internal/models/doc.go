// Package models defines the documents persisted by weighttrack.
//
// # Documents
//
// Each user owns one document per domain:
//   - WeightEntry: a body weight measurement, stored as a JSON array per user
//   - UserSettings: display and unit preferences, stored as a single object per user
//   - WaterEntry: the water intake for one calendar date, stored as a JSON array per user
//
// Users themselves live in a single shared array.
//
// # Backward compatibility
//
// Documents written by older releases may lack fields added later
// (role, createdAt, chartColor, waterUnit, dateFormat, activities).
// Every document type has a normalize step that runs right after decoding and
// fills those fields with their defaults, so callers always see a fully
// populated value. Normalization never writes back to storage on its own;
// the backfilled values are persisted on the next explicit update.
//
// Older weight entries encoded the activity as a number (0=rest, 1=weights,
// 2=cardio). ActivityID accepts both encodings; the default activities use
// the ids "0", "1" and "2" so those entries keep resolving.
package models
