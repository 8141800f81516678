package rubyscope

import "rubyscope/internal/index"

// Public type aliases for internal index types used in the QueryBuilder
// API. These are Go type aliases (=) — identical to the internal types at
// compile time. External consumers use these names; no conversion is
// needed.

type Entry = index.Entry
type EntryKind = index.EntryKind
type ClassEntry = index.ClassEntry
type ModuleEntry = index.ModuleEntry
type MethodEntry = index.MethodEntry
type ConstantEntry = index.ConstantEntry
type Location = index.Location
type Visibility = index.Visibility
type MethodKind = index.MethodKind
type MixinKind = index.MixinKind
type Origin = index.Origin
type OriginKind = index.OriginKind
type Parameter = index.Parameter
type MethodResolution = index.MethodResolution
type Stats = index.Stats
