package validation

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestIsEVMAddress(t *testing.T) {
	assert.True(t, IsEVMAddress("0x6d63c3dd44983cddeea8cb2e730b82dae2e91e32"))
	assert.True(t, IsEVMAddress("0x6d63C3DD44983CddEeA8cB2e730b82daE2E91E32"))
	assert.False(t, IsEVMAddress("6d63c3dd44983cddeea8cb2e730b82dae2e91e32"))
	assert.False(t, IsEVMAddress("0x6d63c3dd44983cddeea8cb2e730b82dae2e91e3"))
	assert.False(t, IsEVMAddress("0xzz63c3dd44983cddeea8cb2e730b82dae2e91e32"))
	assert.False(t, IsEVMAddress(""))
}

func TestChecksumAddress(t *testing.T) {
	assert.Equal(t, "0x6d63C3DD44983CddEeA8cB2e730b82daE2E91E32",
		ChecksumAddress("0x6D63C3DD44983CDDEEA8CB2E730B82DAE2E91E32"))
}

type bindTarget struct {
	Slot   string `json:"slot" binding:"required,slot_id"`
	Wallet string `json:"wallet" binding:"required,evm_address"`
	Amount string `json:"amount" binding:"required,decimal_amount"`
}

func TestRegisteredTags(t *testing.T) {
	gin.SetMode(gin.TestMode)
	Register()
	Register()

	r := gin.New()
	r.POST("/", func(c *gin.Context) {
		var p bindTarget
		if err := c.ShouldBindJSON(&p); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusOK)
	})

	tests := []struct {
		name string
		body string
		want int
	}{
		{"valid", `{"slot":"demo-header","wallet":"0x6d63c3dd44983cddeea8cb2e730b82dae2e91e32","amount":"0.25"}`, http.StatusOK},
		{"slot with spaces", `{"slot":"demo header","wallet":"0x6d63c3dd44983cddeea8cb2e730b82dae2e91e32","amount":"0.25"}`, http.StatusBadRequest},
		{"slot starting with dash", `{"slot":"-demo","wallet":"0x6d63c3dd44983cddeea8cb2e730b82dae2e91e32","amount":"0.25"}`, http.StatusBadRequest},
		{"bad wallet", `{"slot":"demo","wallet":"alice","amount":"0.25"}`, http.StatusBadRequest},
		{"negative amount", `{"slot":"demo","wallet":"0x6d63c3dd44983cddeea8cb2e730b82dae2e91e32","amount":"-1"}`, http.StatusBadRequest},
		{"amount not a number", `{"slot":"demo","wallet":"0x6d63c3dd44983cddeea8cb2e730b82dae2e91e32","amount":"ten"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}
