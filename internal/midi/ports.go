package midi

import "fmt"

// PortInfo describes one enumerated port for listings
type PortInfo struct {
	Index int
	Name  string
	Err   error
}

func (p PortInfo) String() string {
	if p.Err != nil {
		return fmt.Sprintf("%d: ERROR - %v", p.Index, p.Err)
	}
	return fmt.Sprintf("%d: '%s' (len: %d)", p.Index, p.Name, len(p.Name))
}

// ListInPorts returns every input port, including those whose name is not readable yet
func ListInPorts(drv Driver) ([]PortInfo, error) {
	ins, err := drv.Ins()
	if err != nil {
		return nil, fmt.Errorf("failed to list input ports: %w", err)
	}
	return portInfos(Candidates(ins)), nil
}

// ListOutPorts returns every output port, including those whose name is not readable yet
func ListOutPorts(drv Driver) ([]PortInfo, error) {
	outs, err := drv.Outs()
	if err != nil {
		return nil, fmt.Errorf("failed to list output ports: %w", err)
	}
	return portInfos(Candidates(outs)), nil
}

func portInfos(cands []Candidate) []PortInfo {
	infos := make([]PortInfo, 0, len(cands))
	for _, c := range cands {
		infos = append(infos, PortInfo(c))
	}
	return infos
}
