package quickstart

import (
	"context"
	"log"
	"os"

	"github.com/broady/refit"
	"github.com/broady/refit/httptransport"
	"github.com/broady/refit/middleware"
)

// [snippet:registration]
var newsAPI = refit.NewRegistry().
	MustDefine("list", refit.GET("/news"), refit.Query(0, "params")).
	MustDefine("get", refit.GET("/news/{id}"), refit.Path(0, "id")).
	MustDefine("create", refit.POST("/news", map[string]string{"X-Client": "quickstart"}), refit.Body(0))

// [/snippet:registration]

// [snippet:bind collapse]
type NewsClient struct {
	List   func(ctx context.Context, params *ListNewsParams) (any, error)
	Get    func(ctx context.Context, id int32) (*refit.Response, error)
	Create func(ctx context.Context, params *CreateNewsParams) (any, error)
}

// [/snippet:bind]

func exampleClient() {
	// [snippet:client]
	client, err := refit.NewClient(newsAPI, httptransport.New(), refit.Config{
		BaseURL: "https://news.example.com/api",
		Auth: func() (refit.Token, error) {
			return refit.Immediate("Bearer " + os.Getenv("NEWS_TOKEN")), nil
		},
	})
	if err != nil {
		log.Fatal(err)
	}
	client.WithBodyValidation().WithInterceptor(middleware.LoggingInterceptor(nil))

	var news NewsClient
	if err := client.Bind(&news); err != nil {
		log.Fatal(err)
	}

	items, err := news.List(context.Background(), &ListNewsParams{Limit: 10})
	// [/snippet:client]
	_, _ = items, err
}

// Keep example functions referenced.
var _ = exampleClient
