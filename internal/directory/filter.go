package directory

import "strings"

// Head returns the first limit companies. Non-positive limits yield an empty
// slice and limits past the end yield everything.
func Head(companies []Company, limit int) []Company {
	if limit <= 0 {
		return []Company{}
	}
	if limit > len(companies) {
		limit = len(companies)
	}
	return companies[:limit]
}

// MatchCompanies keeps companies whose name or one-liner contains keyword,
// ignoring case. A record without a string name fails the whole match, as
// does a one_liner that is present but not a string once it has to be read.
func MatchCompanies(op string, companies []Company, keyword string) ([]Company, error) {
	needle := strings.ToLower(keyword)
	matches := []Company{}
	for i, c := range companies {
		name, ok := c["name"].(string)
		if !ok {
			return nil, newFieldError(op, i, "name")
		}
		if strings.Contains(strings.ToLower(name), needle) {
			matches = append(matches, c)
			continue
		}
		desc, err := oneLiner(op, i, c)
		if err != nil {
			return nil, err
		}
		if strings.Contains(strings.ToLower(desc), needle) {
			matches = append(matches, c)
		}
	}
	return matches, nil
}

// oneLiner treats an absent one_liner as empty. Null or any other non-string
// value is an error.
func oneLiner(op string, index int, c Company) (string, error) {
	v, present := c["one_liner"]
	if !present {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", newTypeError(op, index, "one_liner", v)
	}
	return s, nil
}
