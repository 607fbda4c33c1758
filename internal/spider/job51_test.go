package spider

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSearchURL(t *testing.T) {
	t.Parallel()

	url := SearchURL("软件 测试", 3, "010000")
	require.Contains(t, url, "https://we.51job.com/api/job/search-pc?")
	require.Contains(t, url, "keyword=%E8%BD%AF%E4%BB%B6+%E6%B5%8B%E8%AF%95")
	require.Contains(t, url, "pageNum=3")
	require.Contains(t, url, "pageSize=20")
	require.Contains(t, url, "jobArea=010000")
	require.Contains(t, url, "api_key=51job")
}

func TestDecodeSearch(t *testing.T) {
	t.Parallel()

	body := []byte(`{"resultbody":{"job":{"items":[
		{"jobName":"Go开发","jobAreaString":"北京","provideSalaryString":"2-3万",
		 "workYearString":"3-4年","degreeString":"本科","companyTypeString":"民营",
		 "companyIndustryType1Str":"互联网","companyIndustryType2Str":"电子商务",
		 "jobDescribe":"负责后端服务"}
	]}}}`)

	postings, err := DecodeSearch(body)
	require.NoError(t, err)
	require.Len(t, postings, 1)

	rec := postings[0].Record("Go")
	require.Equal(t, Provider, rec.Provider)
	require.Equal(t, "Go", rec.Keyword)
	require.Equal(t, "Go开发", rec.Title)
	require.Equal(t, "北京", rec.Place)
	require.Equal(t, "2-3万", rec.Salary)
	require.Equal(t, "互联网 / 电子商务", rec.Industry)
}

func TestDecodeSearchErrorPayload(t *testing.T) {
	t.Parallel()

	_, err := DecodeSearch([]byte(`{"error":"TypeError: Failed to fetch"}`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "Failed to fetch")
}

func TestDecodeSearchMalformed(t *testing.T) {
	t.Parallel()

	_, err := DecodeSearch([]byte(`<html>blocked</html>`))
	require.Error(t, err)
}

func TestDecodeSearchEmptyItems(t *testing.T) {
	t.Parallel()

	postings, err := DecodeSearch([]byte(`{"resultbody":{"job":{"items":[]}}}`))
	require.NoError(t, err)
	require.Empty(t, postings)
}

func TestRecordMissingFieldsStayEmpty(t *testing.T) {
	t.Parallel()

	postings, err := DecodeSearch([]byte(`{"resultbody":{"job":{"items":[{}]}}}`))
	require.NoError(t, err)
	require.Len(t, postings, 1)

	rec := postings[0].Record("数据分析")
	require.Equal(t, Provider, rec.Provider)
	require.Equal(t, "数据分析", rec.Keyword)
	require.Empty(t, rec.Title)
	require.Empty(t, rec.Salary)
	require.Empty(t, rec.Industry)
}

func TestJoinIndustrySingleSide(t *testing.T) {
	t.Parallel()

	p := Posting{CompanyIndustryType1Str: "互联网"}
	require.Equal(t, "互联网", p.Record("x").Industry)

	p = Posting{CompanyIndustryType2Str: "电子商务"}
	require.Equal(t, "电子商务", p.Record("x").Industry)
}

func TestRecordRowMatchesColumns(t *testing.T) {
	t.Parallel()

	rec := Record{
		Provider: "p", Keyword: "k", Title: "t", Place: "pl", Salary: "s",
		Experience: "e", Education: "ed", CompanyType: "ct", Industry: "i", Description: "d",
	}
	row := rec.Row()
	require.Len(t, row, len(Columns))
	require.Equal(t, []string{"p", "k", "t", "pl", "s", "e", "ed", "ct", "i", "d"}, row)
}
