package spider

// DefaultLimit caps a task that was submitted without an explicit limit.
const DefaultLimit = 999999

// DefaultCities is the built-in city list used when a request omits cities.
var DefaultCities = []string{
	"北京", "上海", "广州", "深圳", "杭州", "成都", "南京", "武汉", "西安", "苏州",
	"重庆", "长沙", "天津", "青岛", "厦门", "宁波", "大连", "福州", "济南", "无锡",
	"合肥", "郑州", "沈阳", "昆明", "哈尔滨", "石家庄", "南昌", "东莞", "佛山", "珠海",
	"常州", "温州", "全国",
}

// DefaultKeywords is the built-in keyword list used when a request omits jobs.
var DefaultKeywords = []string{
	"Java", "Python", "Go", "C++", "PHP", "后端开发", "服务器",
	"前端开发", "JavaScript", "Vue", "React", "小程序", "Android", "iOS",
	"数据分析", "数据挖掘", "大数据", "算法工程师", "机器学习", "人工智能", "AI",
	"深度学习", "自然语言处理", "NLP", "推荐系统",
	"软件测试", "测试开发", "自动化测试", "运维", "DevOps", "SRE",
	"游戏开发", "Unity", "UE4", "UE5", "游戏策划",
	"嵌入式", "物联网", "IoT", "硬件",
	"产品经理", "项目经理", "技术支持", "网络安全", "爬虫", "可视化",
	"UI设计师", "销售", "运营",
}

// BuildTasks produces the (city, keyword) cross product. Empty inputs fall
// back to the built-in default lists; a non-positive limit falls back to
// DefaultLimit.
func BuildTasks(cities, keywords []string, limit int) []Task {
	if len(cities) == 0 {
		cities = DefaultCities
	}
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	tasks := make([]Task, 0, len(cities)*len(keywords))
	for _, city := range cities {
		for _, keyword := range keywords {
			tasks = append(tasks, Task{City: city, Keyword: keyword, Limit: limit})
		}
	}
	return tasks
}
