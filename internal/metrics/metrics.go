package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 知识库流水线指标
var (
	DocumentsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kbchat_documents_processed_total",
			Help: "Number of documents that finished the ingestion pipeline",
		},
		[]string{"status"}, // processed | failed
	)

	ChunksIndexed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kbchat_chunks_indexed_total",
			Help: "Number of chunks added to the vector index",
		},
	)

	EmbeddingRequests = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kbchat_embedding_requests_total",
			Help: "Number of embedding provider calls",
		},
	)

	EmbeddingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kbchat_embedding_request_duration_seconds",
			Help:    "Latency of embedding provider calls",
			Buckets: prometheus.DefBuckets,
		},
	)

	RetrievalRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kbchat_retrieval_requests_total",
			Help: "Number of retrieval queries against the vector index",
		},
		[]string{"result"}, // ok | empty | error | unavailable
	)

	RAGDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kbchat_rag_decisions_total",
			Help: "RAG heuristic outcomes per chat message",
		},
		[]string{"decision"}, // retrieve | skip
	)
)
