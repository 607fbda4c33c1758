package spider

import (
	"encoding/json"
	"fmt"
	"net/url"
)

// PageSize is the fixed entry count requested per search page.
const PageSize = 20

const (
	searchAPIBase  = "https://we.51job.com/api/job/search-pc"
	searchPageBase = "https://we.51job.com/pc/search"
)

// SearchURL builds the paginated search API URL for one page.
func SearchURL(keyword string, page int, geoCode string) string {
	q := url.Values{}
	q.Set("api_key", "51job")
	q.Set("keyword", keyword)
	q.Set("searchType", "2")
	q.Set("sortType", "0")
	q.Set("pageNum", fmt.Sprint(page))
	q.Set("pageSize", fmt.Sprint(PageSize))
	q.Set("jobArea", geoCode)
	return searchAPIBase + "?" + q.Encode()
}

// SearchPageURL builds the public search page used to establish a session.
func SearchPageURL(geoCode string) string {
	q := url.Values{}
	q.Set("jobArea", geoCode)
	return searchPageBase + "?" + q.Encode()
}

type searchResponse struct {
	Error      string `json:"error"`
	ResultBody struct {
		Job struct {
			Items []Posting `json:"items"`
		} `json:"job"`
	} `json:"resultbody"`
}

// Posting is the wire shape of one search result entry.
type Posting struct {
	JobName                 string `json:"jobName"`
	JobAreaString           string `json:"jobAreaString"`
	ProvideSalaryString     string `json:"provideSalaryString"`
	WorkYearString          string `json:"workYearString"`
	DegreeString            string `json:"degreeString"`
	CompanyTypeString       string `json:"companyTypeString"`
	CompanyIndustryType1Str string `json:"companyIndustryType1Str"`
	CompanyIndustryType2Str string `json:"companyIndustryType2Str"`
	JobDescribe             string `json:"jobDescribe"`
}

// Record normalizes the posting for the given search keyword. Missing
// remote fields stay empty.
func (p Posting) Record(keyword string) Record {
	return Record{
		Provider:    Provider,
		Keyword:     keyword,
		Title:       p.JobName,
		Place:       p.JobAreaString,
		Salary:      p.ProvideSalaryString,
		Experience:  p.WorkYearString,
		Education:   p.DegreeString,
		CompanyType: p.CompanyTypeString,
		Industry:    joinIndustry(p.CompanyIndustryType1Str, p.CompanyIndustryType2Str),
		Description: p.JobDescribe,
	}
}

func joinIndustry(primary, secondary string) string {
	switch {
	case primary == "":
		return secondary
	case secondary == "":
		return primary
	default:
		return primary + " / " + secondary
	}
}

// DecodeSearch parses one API response body. A payload carrying an error
// field, or one that fails to decode, is a fetch error for the owning task.
func DecodeSearch(body []byte) ([]Posting, error) {
	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("search api error: %s", resp.Error)
	}
	return resp.ResultBody.Job.Items, nil
}
