package controller

import (
	"math/rand/v2"
	"net/http"

	"gramgen-go/internal/model/grammar"
	"gramgen-go/internal/service/corpus"
	"gramgen-go/internal/service/sampler"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const MaxRequestCount = 1000

type GenerationController struct {
	corpusService *corpus.CorpusService
	samplerCfg    sampler.Config
	logger        *zap.Logger
}

func NewGenerationController(corpusService *corpus.CorpusService, samplerCfg sampler.Config, logger *zap.Logger) *GenerationController {
	return &GenerationController{
		corpusService: corpusService,
		samplerCfg:    samplerCfg,
		logger:        logger,
	}
}

type GenerateRequest struct {
	Count     int     `json:"count"`
	Seed      *uint64 `json:"seed,omitempty"`
	RootClass *int    `json:"root_class,omitempty"`
	Unique    bool    `json:"unique"`
}

type ParseResponse struct {
	Sentence string   `json:"sentence"`
	Links    []string `json:"links"`
	ULL      string   `json:"ull"`
}

type GenerateResponse struct {
	RunID  string             `json:"run_id"`
	Seed   uint64             `json:"seed"`
	Parses []ParseResponse    `json:"parses"`
	Stats  corpus.CorpusStats `json:"stats"`
}

// ToParseResponse flattens a parse for JSON clients
func ToParseResponse(p *sampler.GeneratedParse) ParseResponse {
	links := make([]string, len(p.Links))
	for i, l := range p.Links {
		links[i] = l.String()
	}
	return ParseResponse{Sentence: p.Sentence, Links: links, ULL: p.ULL()}
}

func (gc *GenerationController) Generate(c *gin.Context) {
	var request GenerateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		gc.logger.Error("Invalid request payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request payload",
			"details": err.Error(),
		})
		return
	}
	if request.Count == 0 {
		request.Count = 1
	}
	if request.Count < 0 || request.Count > MaxRequestCount {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "count must be between 1 and 1000",
		})
		return
	}

	req := corpus.CorpusRequest{
		Size:    request.Count,
		Unique:  request.Unique,
		Sampler: gc.samplerCfg,
	}
	if request.Seed != nil {
		req.Seed = *request.Seed
	} else {
		req.Seed = rand.Uint64()
	}
	if request.RootClass != nil {
		if *request.RootClass < 0 || *request.RootClass >= gc.corpusService.Grammar().NumClasses() {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "root_class out of range",
			})
			return
		}
		req.Start = &sampler.Start{Class: grammar.ClassID(*request.RootClass), Disjunct: -1}
	}

	gc.logger.Info("Generating parses",
		zap.Int("count", req.Size),
		zap.Uint64("seed", req.Seed))

	result, err := gc.corpusService.Generate(c.Request.Context(), req)
	if err != nil {
		gc.logger.Error("Failed to generate parses", zap.Error(err))
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "Failed to generate parses",
			"details": err.Error(),
		})
		return
	}

	response := GenerateResponse{
		RunID:  result.RunID,
		Seed:   result.Seed,
		Parses: make([]ParseResponse, len(result.Parses)),
		Stats:  result.Stats,
	}
	for i, p := range result.Parses {
		response.Parses[i] = ToParseResponse(p)
	}
	c.JSON(http.StatusOK, response)
}

func (gc *GenerationController) DescribeGrammar(c *gin.Context) {
	c.JSON(http.StatusOK, gc.corpusService.DescribeGrammar())
}
