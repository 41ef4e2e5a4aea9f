package compare

import (
	"encoding/json"
	"sort"
)

// JSONFormatter formats comparison results as JSON
type JSONFormatter struct {
	Pretty bool
}

// jsonComparison adds a ranking to the set; the set's own fields stay at the top level
type jsonComparison struct {
	*ComparisonSet
	// Ranking lists every scenario, base included, by success probability then median
	// ending balance
	Ranking []string `json:"ranking"`
}

// Format renders the set with its ranking
func (jf *JSONFormatter) Format(compSet *ComparisonSet) (string, error) {
	doc := jsonComparison{ComparisonSet: compSet, Ranking: Rank(compSet)}

	var data []byte
	var err error
	if jf.Pretty {
		data, err = json.MarshalIndent(doc, "", "  ")
	} else {
		data, err = json.Marshal(doc)
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Rank orders scenario names from most to least reliable. Ties in success probability go
// to the larger median ending balance, then to the earlier entry.
func Rank(compSet *ComparisonSet) []string {
	all := make([]ComparisonResult, 0, len(compSet.AlternativeResults)+1)
	if compSet.BaseResult != nil {
		all = append(all, *compSet.BaseResult)
	}
	all = append(all, compSet.AlternativeResults...)

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].SuccessProbability != all[j].SuccessProbability {
			return all[i].SuccessProbability > all[j].SuccessProbability
		}
		return all[i].MedianEndingBalance.GreaterThan(all[j].MedianEndingBalance)
	})
	names := make([]string, len(all))
	for i, r := range all {
		names[i] = r.ScenarioName
	}
	return names
}
