// Package scriptfacts pulls table facts out of an extracted VBScript: the ROM
// code the table drives, whether it renders through UltraDMD or FlexDMD, the
// FlexDMD project folder, and the music sub-folders it plays from.
//
// Extraction is a fixed, ordered list of independent rules. Each rule may
// contribute nothing; none of them fail. Commented-out lines are ignored.
package scriptfacts
