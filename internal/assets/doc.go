// Package assets locates the files a table depends on outside the table file
// itself: ROM archives, AltSound and AltColor packs, backglasses, DMD folders,
// PuP packs and music folders.
//
// Lookups are keyed by the ROM code and table base name derived from the
// script. Names are matched exactly first, then case-insensitively. PuP and
// music folders additionally fall back to fuzzy name resolution against the
// sub-folders that exist.
package assets
