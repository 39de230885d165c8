// Package features turns raw participant statistics into the fixed feature table the
// outcome classifier was trained on.
package features

// Label is the outcome column
const Label = "win"

// NumColumns is the width of the canonical schema, label included
const NumColumns = 37

// Columns is the canonical schema. Order matters: the classifier consumes columns
// positionally.
var Columns = [NumColumns]string{
	"win", "item1", "item2", "item3", "item4", "item5", "item6", "kills",
	"deaths", "assists", "largestkillingspree", "largestmultikill",
	"killingsprees", "longesttimespentliving", "doublekills", "triplekills",
	"quadrakills", "pentakills", "magicdmgdealt", "largestcrit",
	"magicdmgtochamp", "dmgselfmit", "dmgtoobj", "dmgtoturrets",
	"visionscore", "magicdmgtaken", "goldearned", "goldspent",
	"turretkills", "inhibkills", "neutralminionskilled", "ownjunglekills",
	"enemyjunglekills", "champlvl", "wardsplaced", "wardskilled",
	"firstblood",
}

// Renames maps lowercased API field names to their canonical short names
var Renames = map[string]string{
	"champlevel":                      "champlvl",
	"damagedealttoturrets":            "dmgtoturrets",
	"damageselfmitigated":             "dmgselfmit",
	"firstbloodkill":                  "firstblood",
	"inhibitorkills":                  "inhibkills",
	"largestcriticalstrike":           "largestcrit",
	"magicdamagedealt":                "magicdmgdealt",
	"magicdamagedealttochampions":     "magicdmgtochamp",
	"magicaldamagetaken":              "magicdmgtaken",
	"neutralminionskilledenemyjungle": "enemyjunglekills",
	"neutralminionskilledteamjungle":  "ownjunglekills",
	"damagedealttoobjectives":         "dmgtoobj",
}

var columnIndex = func() map[string]int {
	idx := make(map[string]int, NumColumns)
	for i, c := range Columns {
		idx[c] = i
	}
	return idx
}()

// Index returns the position of a canonical column
func Index(column string) (int, bool) {
	i, ok := columnIndex[column]
	return i, ok
}

// FeatureColumns returns the canonical columns without the label, in order
func FeatureColumns() []string {
	out := make([]string, 0, NumColumns-1)
	for _, c := range Columns {
		if c != Label {
			out = append(out, c)
		}
	}
	return out
}
