package version

import (
	"fmt"
	"io"
)

type License struct {
	ModuleName  string
	LicenseName string
	Link        string
}

var Licenses = []License{
	{
		ModuleName:  "apicall-go",
		LicenseName: "MIT License",
		Link:        "https://github.com/nojima/apicall-go/blob/master/LICENSE",
	},
	{
		ModuleName:  "Go",
		LicenseName: "BSD License",
		Link:        "https://golang.org/LICENSE",
	},
	{
		ModuleName:  "aurora",
		LicenseName: "WTFPL",
		Link:        "https://github.com/logrusorgru/aurora/blob/master/LICENSE",
	},
	{
		ModuleName:  "go-isatty",
		LicenseName: "MIT License",
		Link:        "https://github.com/mattn/go-isatty/blob/master/LICENSE",
	},
	{
		ModuleName:  "getopt",
		LicenseName: "BSD License",
		Link:        "https://github.com/pborman/getopt/blob/master/LICENSE",
	},
	{
		ModuleName:  "errors",
		LicenseName: "BSD License",
		Link:        "https://github.com/pkg/errors/blob/master/LICENSE",
	},
	{
		ModuleName:  "bytefmt",
		LicenseName: "Apache License",
		Link:        "https://github.com/cloudfoundry/bytefmt/blob/master/LICENSE",
	},
	{
		ModuleName:  "androiddnsfix",
		LicenseName: "MIT License",
		Link:        "https://github.com/mtibben/androiddnsfix/blob/master/LICENSE",
	},
	{
		ModuleName:  "uuid",
		LicenseName: "BSD License",
		Link:        "https://github.com/google/uuid/blob/master/LICENSE",
	},
	{
		ModuleName:  "sonic",
		LicenseName: "Apache License",
		Link:        "https://github.com/bytedance/sonic/blob/main/LICENSE",
	},
	{
		ModuleName:  "mimetype",
		LicenseName: "MIT License",
		Link:        "https://github.com/gabriel-vasile/mimetype/blob/master/LICENSE",
	},
	{
		ModuleName:  "go-toml",
		LicenseName: "MIT License",
		Link:        "https://github.com/pelletier/go-toml/blob/v2/LICENSE",
	},
	{
		ModuleName:  "envconfig",
		LicenseName: "MIT License",
		Link:        "https://github.com/kelseyhightower/envconfig/blob/master/LICENSE",
	},
	{
		ModuleName:  "zap",
		LicenseName: "MIT License",
		Link:        "https://github.com/uber-go/zap/blob/master/LICENSE",
	},
	{
		ModuleName:  "resty",
		LicenseName: "MIT License",
		Link:        "https://github.com/go-resty/resty/blob/main/LICENSE",
	},
	{
		ModuleName:  "bluemonday",
		LicenseName: "BSD License",
		Link:        "https://github.com/microcosm-cc/bluemonday/blob/main/LICENSE.md",
	},
	{
		ModuleName:  "client_golang",
		LicenseName: "Apache License",
		Link:        "https://github.com/prometheus/client_golang/blob/main/LICENSE",
	},
}

func PrintLicenses(w io.Writer) {
	for _, license := range Licenses {
		fmt.Fprintf(w, "%s:\n  %s\n  %s\n\n",
			license.ModuleName,
			license.LicenseName,
			license.Link,
		)
	}
}
