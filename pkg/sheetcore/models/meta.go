package models

// MetaSheetName is the default name of the hidden sheet that carries the
// metadata payload. It is never a user sheet.
const MetaSheetName = "_internal_meta"

// MetaSentinel is the key written in A1 of the metadata sheet.
const MetaSentinel = "__SHEETCORE_META__"
