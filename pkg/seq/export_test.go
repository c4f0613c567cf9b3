package seq

var SetFastaRdSize = setFastaRdSize
var Species = species
var SplitCmmt = splitCmmt

// ResetRdSize puts the read buffer back to its normal size.
func ResetRdSize() { rdsize = defaultReadSize }
