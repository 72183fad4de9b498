package model

// The five sentiment topics, in presentation order.
const (
	TopicService  = "Service"
	TopicPrice    = "Price"
	TopicQuality  = "Quality"
	TopicAmbiance = "Ambiance"
	TopicWaitTime = "Wait Time"
)

// Topics is the canonical topic order for prompts, charts and tables.
var Topics = []string{TopicService, TopicPrice, TopicQuality, TopicAmbiance, TopicWaitTime}

// SentimentDiagnosis holds one integer score in [0,10] per topic. The struct
// form guarantees exactly the five topics are always present.
type SentimentDiagnosis struct {
	Service  int
	Price    int
	Quality  int
	Ambiance int
	WaitTime int
}

// NeutralDiagnosis returns 5 on every topic. Used as the base when the model
// answers but omits a topic.
func NeutralDiagnosis() SentimentDiagnosis {
	return SentimentDiagnosis{Service: 5, Price: 5, Quality: 5, Ambiance: 5, WaitTime: 5}
}

// ZeroDiagnosis returns 0 on every topic. It signals a hard scoring failure,
// distinct from the neutral diagnosis.
func ZeroDiagnosis() SentimentDiagnosis {
	return SentimentDiagnosis{}
}

// Unavailable reports whether the diagnosis is the all-zero failure value.
func (d SentimentDiagnosis) Unavailable() bool {
	return d == SentimentDiagnosis{}
}

// Scores returns the five scores in canonical topic order.
func (d SentimentDiagnosis) Scores() []int {
	return []int{d.Service, d.Price, d.Quality, d.Ambiance, d.WaitTime}
}

// Get returns the score for a topic name, or -1 for an unknown topic.
func (d SentimentDiagnosis) Get(topic string) int {
	switch topic {
	case TopicService:
		return d.Service
	case TopicPrice:
		return d.Price
	case TopicQuality:
		return d.Quality
	case TopicAmbiance:
		return d.Ambiance
	case TopicWaitTime:
		return d.WaitTime
	}
	return -1
}

// Set assigns a topic score. Unknown topics are ignored.
func (d *SentimentDiagnosis) Set(topic string, score int) {
	switch topic {
	case TopicService:
		d.Service = score
	case TopicPrice:
		d.Price = score
	case TopicQuality:
		d.Quality = score
	case TopicAmbiance:
		d.Ambiance = score
	case TopicWaitTime:
		d.WaitTime = score
	}
}

// MinTopic returns the lowest-scoring topic. Ties resolve to the earlier topic
// in canonical order.
func (d SentimentDiagnosis) MinTopic() (topic string, score int) {
	topic, score = Topics[0], d.Get(Topics[0])
	for _, t := range Topics[1:] {
		if s := d.Get(t); s < score {
			topic, score = t, s
		}
	}
	return topic, score
}
