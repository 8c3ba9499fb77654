package catalog

import (
	"github.com/matzehuels/stackdiagram/pkg/diagram"
	"github.com/matzehuels/stackdiagram/pkg/render"
)

func init() {
	register(Entry{
		Name:        "biteswipe",
		Description: "BiteSwipe backend deployment: GitHub Actions, Terraform on Azure, Docker Compose",
		config:      biteSwipeConfig,
		build:       buildBiteSwipe,
	})
}

func biteSwipeConfig() diagram.Config {
	return diagram.Config{
		Title:      "BiteSwipe Backend Architecture",
		OutputPath: "biteswipe_architecture",
		Options: render.Options{
			Formats: []string{render.FormatPNG, render.FormatPDF},
		},
		GraphAttrs: diagram.Attrs{
			"splines":     "ortho",
			"nodesep":     "1.0",
			"ranksep":     "1.2",
			"pad":         "1.5",
			"bgcolor":     "white",
			"concentrate": "true",
		},
		NodeAttrs: diagram.Attrs{
			"fontsize":  "13",
			"fontcolor": "#333333",
			"width":     "1.5",
			"height":    "1.5",
			"margin":    "0.4",
		},
		EdgeAttrs: diagram.Attrs{
			"color":    "#666666",
			"penwidth": "1.2",
		},
	}
}

// buildBiteSwipe relies on the builder's sticky error: individual calls are
// not checked, b.Err reports the first failure.
func buildBiteSwipe(b *diagram.Builder) error {
	node := func(label string, c diagram.Category) diagram.NodeID {
		id, _ := b.Node(label, c, nil)
		return id
	}
	flow := func(from, to diagram.NodeID, label, color, penwidth string) {
		_ = b.Connect(from, to, label, diagram.Colored(color, penwidth))
	}
	orchestrate := func(from, to diagram.NodeID, minlen string) {
		_ = b.Connect(from, to, "orchestrates", diagram.StyleDashedFlow.Merge(diagram.Attrs{"minlen": minlen}))
	}

	mobile := node("BiteSwipe Mobile App\n(Android/iOS)", diagram.CategoryActor)

	var mainBranch, actions, envFile, secrets diagram.NodeID
	_ = b.Cluster("GitHub Repository", diagram.Attrs{
		"bgcolor": "#E6F3FF", "pencolor": "#2980B9", "penwidth": "2.0",
		"margin": "25", "pad": "1.8", "nodesep": "0.9", "ranksep": "0.9",
	}, func() error {
		// Unnamed, invisible cluster keeps the branch and the runner on one rank.
		_ = b.Cluster("", diagram.StyleInvisible.Merge(diagram.Attrs{"rank": "same"}), func() error {
			mainBranch = node("main branch", diagram.CategoryGeneric)
			return b.Cluster("GitHub Actions Runner", diagram.Attrs{
				"style": "dashed", "bgcolor": "#E8F8F5", "pencolor": "#27AE60", "penwidth": "1.5",
			}, func() error {
				actions = node("GitHub Actions", diagram.CategoryCI)
				envFile = node(".env / production.env", diagram.CategoryStorage)
				flow(actions, envFile, "generates", "#D35400", "1.5")
				return nil
			})
		})
		secrets = node("GitHub Repository Secrets", diagram.CategorySecret)
		flow(mainBranch, actions, "push triggers", "#2980B9", "1.5")
		return nil
	})

	var terraform, vm, nginx diagram.NodeID
	_ = b.Cluster("Terraform Infrastructure", diagram.Attrs{
		"bgcolor": "#E6FFE6", "pencolor": "#27AE60", "penwidth": "2.0",
	}, func() error {
		terraform = node("Terraform", diagram.CategoryGeneric)
		return b.Cluster("Azure Resources", nil, func() error {
			return b.Cluster("Resource Group (owner_tag-biteswipe-resources)", diagram.Attrs{
				"margin": "40", "pad": "2.0", "nodesep": "1.0", "ranksep": "1.0",
				"bgcolor": "#F0F0F0", "pencolor": "#3498DB", "penwidth": "2.0",
			}, func() error {
				var services diagram.NodeID
				_ = b.Cluster("Azure Infrastructure Services", diagram.Attrs{
					"style": "dashed", "margin": "20", "bgcolor": "#E6E6FF", "pencolor": "#8E44AD", "penwidth": "2.0",
				}, func() error {
					services = node("Supporting Services\n(Network, Security, etc.)", diagram.CategoryGeneric)
					return nil
				})

				_ = b.Cluster("Azure VM (Linux)", diagram.Attrs{
					"bgcolor": "#FFF0E6", "pencolor": "#E67E22", "penwidth": "2.0",
				}, func() error {
					vm = node("", diagram.CategoryVM)
					return b.Cluster("Docker Compose Environment", diagram.Attrs{
						"style": "solid", "bgcolor": "#FFE6E6", "pencolor": "#E74C3C", "penwidth": "1.5",
					}, func() error {
						compose := node("docker-compose.yml", diagram.CategoryContainer)
						volume := node("mongo_data Volume", diagram.CategoryStorage)

						var mongo, api diagram.NodeID
						_ = b.Cluster("app_network", diagram.StyleNetworkBoundary.Merge(diagram.Attrs{
							"bgcolor": "#E6FFFF", "pencolor": "#2980B9", "penwidth": "2.0",
						}), func() error {
							mongo = node("MongoDB Database", diagram.CategoryDatabase)
							api = node("BiteSwipe Backend API", diagram.CategoryService)
							nginx = node("Nginx Web Server\n(External Port: 443/HTTPS)", diagram.CategoryProxy)
							flow(mongo, volume, "stores data in", "#2980B9", "1.5")
							flow(api, mongo, "connects to", "#2980B9", "1.5")
							flow(nginx, api, "proxies to", "#2980B9", "1.5")
							return nil
						})

						orchestrate(compose, mongo, "2")
						orchestrate(compose, api, "1")
						orchestrate(compose, nginx, "2")
						return nil
					})
				})

				flow(services, vm, "supports", "#9B59B6", "1.5")
				return nil
			})
		})
	})

	flow(secrets, actions, "provides secrets", "#8E44AD", "1.5")
	flow(actions, terraform, "triggers", "#27AE60", "1.5")
	flow(terraform, vm, "provisions", "#27AE60", "1.5")
	flow(envFile, terraform, "configures", "#D35400", "1.5")
	flow(terraform, vm, "passes .env", "#3498DB", "2.0")
	flow(mobile, nginx, "HTTPS API requests via\nport 443", "#E74C3C", "1.5")

	return b.Err()
}
