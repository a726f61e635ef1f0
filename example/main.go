package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kroksys/jolokia"
	"github.com/kroksys/jolokia/mockagent"
	"github.com/kroksys/jolokia/protocol"
	"go.uber.org/zap"
)

func main() {
	host := "localhost:3333"
	gin.SetMode(gin.ReleaseMode)
	agent := mockagent.New(mockagent.WithBasicAuth("jolokia", "secret"))
	srv := &http.Server{Addr: host, Handler: agent.Handler()}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Panicln(err)
		}
	}()
	defer srv.Close()
	log.Printf("Jolokia mock agent started. Address: http://%s%s\n", host, mockagent.Path)

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Panicln(err)
	}
	defer logger.Sync()
	client, err := jolokia.NewClient("http://"+host+mockagent.Path,
		jolokia.WithBasicAuth("jolokia", "secret"),
		jolokia.WithLogger(logger),
	)
	if err != nil {
		log.Panicln(err)
	}

	heap, err := protocol.NewRequest(protocol.Read,
		protocol.WithMBean("java.lang:type=Memory"),
		protocol.WithAttribute("HeapMemoryUsage"),
		protocol.WithPath("used"))
	if err != nil {
		log.Panicln(err)
	}
	search, err := protocol.NewRequest(protocol.Search, protocol.WithMBean("java.lang:*"))
	if err != nil {
		log.Panicln(err)
	}
	missing, err := protocol.NewRequest(protocol.Read, protocol.WithMBean("java.lang:type=Missing"))
	if err != nil {
		log.Panicln(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	time.Sleep(100 * time.Millisecond)

	results, err := client.Request(ctx, heap, search, missing)
	if err != nil {
		log.Panicln(err)
	}
	for results.Next() {
		resp := results.Response()
		if resp.OK() {
			log.Printf("%s %s -> %v\n", resp.Request.Type, resp.Request.MBean, resp.Value)
		} else {
			log.Printf("%s %s failed: %s (%s)\n", resp.Request.Type, resp.Request.MBean, resp.Error, resp.ErrorType)
		}
	}
	if err := results.Err(); err != nil {
		log.Panicln(err)
	}

	info, err := client.Version(ctx)
	if err != nil {
		log.Panicln(err)
	}
	log.Printf("agent %s, protocol %s\n", info.Agent, info.Protocol)
}
