package chromosome

import "strings"

// GRCh38 chromosome to RefSeq accession mapping, as used by the NCBI
// Variation API's SPDI notation.
var grch38Accessions = map[string]string{
	"1": "NC_000001.11", "2": "NC_000002.12", "3": "NC_000003.12",
	"4": "NC_000004.12", "5": "NC_000005.10", "6": "NC_000006.12",
	"7": "NC_000007.14", "8": "NC_000008.11", "9": "NC_000009.12",
	"10": "NC_000010.11", "11": "NC_000011.10", "12": "NC_000012.12",
	"13": "NC_000013.11", "14": "NC_000014.9", "15": "NC_000015.10",
	"16": "NC_000016.10", "17": "NC_000017.11", "18": "NC_000018.10",
	"19": "NC_000019.10", "20": "NC_000020.11", "21": "NC_000021.9",
	"22": "NC_000022.11", "X": "NC_000023.11", "Y": "NC_000024.10",
	"MT": "NC_012920.1", "M": "NC_012920.1",
}

// Normalize strips any "chr" prefix and upper-cases the sex/mito
// chromosome letters, so "chrx" and "X" compare equal.
func Normalize(text string) string {
	normalized := strings.TrimSpace(text)
	for _, prefix := range []string{"chr", "Chr", "CHR"} {
		normalized = strings.ReplaceAll(normalized, prefix, "")
	}
	if len(normalized) <= 2 {
		normalized = strings.ToUpper(normalized)
	}
	return normalized
}

// RefSeqAccession resolves a GRCh38 chromosome name to its RefSeq
// accession. The second return is false for unknown chromosomes.
func RefSeqAccession(chrom string) (string, bool) {
	accession, ok := grch38Accessions[Normalize(chrom)]
	return accession, ok
}

func IsValidHumanChromosome(text string) bool {
	_, ok := grch38Accessions[Normalize(text)]
	return ok
}
